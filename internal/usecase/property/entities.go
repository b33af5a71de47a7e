package property

import "time"

type CreatePropertyInput struct {
	PurchaseCost        float64            `json:"purchase_cost"`
	PurchaseDownPayment float64            `json:"purchase_down_payment"`
	AnnualRate          float64            `json:"annual_rate"`
	TotalPeriods        int                `json:"total_periods"`
	Stakeholders        []string           `json:"stakeholders"`
	DownPayments        map[string]float64 `json:"down_payments,omitempty"`
}

type PropertyDTO struct {
	PropertyID    string    `json:"property_id"`
	Stakeholders  []string  `json:"stakeholders"`
	StakeValue    float64   `json:"stake_value"`
	StakeDebt     float64   `json:"stake_debt"`
	CurrentPeriod int       `json:"current_period"`
	CreatedAt     time.Time `json:"created_at"`
}

type PaymentInput struct {
	Stakeholder string  `json:"stakeholder"`
	Amount      float64 `json:"amount"`
	Period      int     `json:"period"`
	Date        string  `json:"date,omitempty"`
}

type RowDTO struct {
	Period       int     `json:"period"`
	TotalPayment float64 `json:"total_payment"`
	Principal    float64 `json:"principal"`
	Interest     float64 `json:"interest"`
	Extra        float64 `json:"extra"`
	Balance      float64 `json:"balance"`
}

type ScheduleDTO struct {
	Rows    []RowDTO `json:"rows"`
	Summary string   `json:"summary"`
}
