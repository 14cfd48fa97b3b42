package domain

// TechLayer is the technology bucket an issue token is classified into.
type TechLayer string

const (
	LayerApp          TechLayer = "App"
	LayerHardware     TechLayer = "Hardware"
	LayerConnectivity TechLayer = "Connectivity"
	LayerDataSync     TechLayer = "DataSync"
	LayerOther        TechLayer = "Other"
)

// TechLayers returns every layer in classification precedence order.
func TechLayers() []TechLayer {
	return []TechLayer{LayerApp, LayerHardware, LayerConnectivity, LayerDataSync, LayerOther}
}

// NameValue is one bar or slice of a ranking/breakdown chart.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// TrendPoint is one calendar month of the issue trend.
type TrendPoint struct {
	Label           string  `json:"label"`
	Month           string  `json:"month"`
	Avg             float64 `json:"avg"`
	TotalIssues     int     `json:"totalIssues"`
	UniqueCustomers int     `json:"uniqueCustomers"`
}

// RepeatFailure is a (company, issue) pair seen more than once. IDs holds one
// entry per occurrence.
type RepeatFailure struct {
	Company string   `json:"company"`
	Issue   string   `json:"issue"`
	Count   int      `json:"count"`
	IDs     []string `json:"ids"`
}

// CalibrationReading compares the manual dip against the app-reported level for
// one after-sales ticket.
type CalibrationReading struct {
	ID       string  `json:"id"`
	Company  string  `json:"company"`
	Manual   float64 `json:"manual"`
	App      float64 `json:"app"`
	Variance float64 `json:"variance"`
	Ratio    float64 `json:"ratio"`
	Flagged  bool    `json:"flagged"`
}

// LayerCount is the number of issue tokens in one tech layer.
type LayerCount struct {
	Layer TechLayer `json:"layer"`
	Count int       `json:"count"`
}

// FuelOverview is the headline view of the fuel dashboard.
type FuelOverview struct {
	Total        int             `json:"total"`
	Resolved     int             `json:"resolved"`
	Pending      int             `json:"pending"`
	ResolvedRate int             `json:"resolvedRate"`
	TopIssue     NameValue       `json:"topIssue"`
	TopIssues    []NameValue     `json:"topIssues"`
	TopCustomer  NameValue       `json:"topCustomer"`
	TopCustomers []NameValue     `json:"topCustomers"`
	ByProduct    []NameValue     `json:"byProduct"`
	ByAppType    []NameValue     `json:"byAppType"`
	ByLayer      []LayerCount    `json:"byLayer"`
	Trend        []TrendPoint    `json:"trend"`
	Repeats      []RepeatFailure `json:"repeats"`
	AvgDaily     float64         `json:"avgDaily"`
}

// SupportOverview is the headline view of the after-sales dashboard.
type SupportOverview struct {
	Total             int             `json:"total"`
	InWarranty        int             `json:"inWarranty"`
	AMC               int             `json:"amc"`
	Critical          int             `json:"critical"`
	CalibrationAlerts int             `json:"calibrationAlerts"`
	CalibrationStatus string          `json:"calibrationStatus"`
	TopIssues         []NameValue     `json:"topIssues"`
	TopCustomers      []NameValue     `json:"topCustomers"`
	BySeverity        []NameValue     `json:"bySeverity"`
	ByHardwareVersion []NameValue     `json:"byHardwareVersion"`
	ByVendor          []NameValue     `json:"byVendor"`
	ByFCCReason       []NameValue     `json:"byFccReason"`
	ByLayer           []LayerCount    `json:"byLayer"`
	Trend             []TrendPoint    `json:"trend"`
	Repeats           []RepeatFailure `json:"repeats"`
	AvgDaily          float64         `json:"avgDaily"`
}
