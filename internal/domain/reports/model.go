package reports

import (
	"time"

	"github.com/google/uuid"
)

// Range bounds a report to a reporting period. A nil endpoint leaves that
// side open.
type Range struct {
	From *time.Time
	To   *time.Time
}

// DashboardReport is the landing-page overview across every department.
type DashboardReport struct {
	Patients struct {
		Total       int `json:"total"`
		NewToday    int `json:"newToday"`
		NewThisWeek int `json:"newThisWeek"`
	} `json:"patients"`
	Appointments struct {
		Total   int `json:"total"`
		Today   int `json:"today"`
		Pending int `json:"pending"`
	} `json:"appointments"`
	Doctors struct {
		Total     int `json:"total"`
		Available int `json:"available"`
	} `json:"doctors"`
	Facility struct {
		TotalBeds     int `json:"totalBeds"`
		OccupiedBeds  int `json:"occupiedBeds"`
		AvailableBeds int `json:"availableBeds"`
		OccupancyRate int `json:"occupancyRate"`
	} `json:"facility"`
	Finance struct {
		TodayRevenue float64 `json:"todayRevenue"`
		MonthRevenue float64 `json:"monthRevenue"`
		PendingBills int     `json:"pendingBills"`
	} `json:"finance"`
	Laboratory struct {
		PendingOrders int `json:"pendingOrders"`
		TodayResults  int `json:"todayResults"`
	} `json:"laboratory"`
}

type PatientReport struct {
	Total       int            `json:"total"`
	ByGender    map[string]int `json:"byGender"`
	ByBloodType map[string]int `json:"byBloodType"`
	AverageAge  int            `json:"averageAge"`
}

type AppointmentReport struct {
	Total           int            `json:"total"`
	ByStatus        map[string]int `json:"byStatus"`
	ByType          map[string]int `json:"byType"`
	AverageDuration int            `json:"averageDuration"`
	CompletionRate  int            `json:"completionRate"`
}

type RevenueReport struct {
	TotalRevenue    float64            `json:"totalRevenue"`
	TotalBilled     float64            `json:"totalBilled"`
	TotalPaid       float64            `json:"totalPaid"`
	Outstanding     float64            `json:"outstanding"`
	CollectionRate  int                `json:"collectionRate"`
	ByPaymentMethod map[string]float64 `json:"byPaymentMethod"`
	ByItemType      map[string]float64 `json:"byItemType"`
}

type LaboratoryReport struct {
	TotalOrders     int            `json:"totalOrders"`
	TotalResults    int            `json:"totalResults"`
	ByStatus        map[string]int `json:"byStatus"`
	ByUrgency       map[string]int `json:"byUrgency"`
	ByTest          map[string]int `json:"byTest"`
	ResultsPerOrder int            `json:"resultsPerOrder"`
}

type DepartmentOccupancy struct {
	Department    string `json:"department"`
	TotalBeds     int    `json:"totalBeds"`
	OccupiedBeds  int    `json:"occupiedBeds"`
	AvailableBeds int    `json:"availableBeds"`
	OccupancyRate int    `json:"occupancyRate"`
}

type OccupancyReport struct {
	TotalBeds     int                   `json:"totalBeds"`
	OccupiedBeds  int                   `json:"occupiedBeds"`
	AvailableBeds int                   `json:"availableBeds"`
	OccupancyRate int                   `json:"occupancyRate"`
	ByStatus      map[string]int        `json:"byStatus"`
	ByType        map[string]int        `json:"byType"`
	Departments   []DepartmentOccupancy `json:"departments"`
}

type DoctorPerformance struct {
	DoctorID       uuid.UUID `json:"doctorId"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Department     string    `json:"department"`
	Appointments   int       `json:"appointments"`
	Completed      int       `json:"completed"`
	Cancelled      int       `json:"cancelled"`
	CompletionRate int       `json:"completionRate"`
}

type DoctorReport struct {
	Doctors           []DoctorPerformance `json:"doctors"`
	TotalDoctors      int                 `json:"totalDoctors"`
	TotalAppointments int                 `json:"totalAppointments"`
}
