package model

// SelectedPackage is the plan the user picked in the package-selection UI.
// It is an immutable input to the activation pipeline.
type SelectedPackage struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"` // major units
	Currency        string  `json:"currency"`
	BillingInterval string  `json:"billing_interval"` // monthly | annual
	BackendPlanType string  `json:"backend_plan_type"`
}
