package http

// CreateRuleRequestDTO is the payload for defining a dunning rule.
type CreateRuleRequestDTO struct {
	RuleName            string `json:"rule_name" validate:"required"`
	CustomerType        string `json:"customer_type" validate:"required,oneof=POSTPAID PREPAID ALL"`
	TriggerDay          int    `json:"trigger_day" validate:"gte=0,lte=365"`
	ActionType          string `json:"action_type" validate:"required,oneof=NOTIFY THROTTLE BAR_OUTGOING DEACTIVATE"`
	NotificationChannel string `json:"notification_channel" validate:"required,oneof=SMS EMAIL APP ALL"`
	Priority            int    `json:"priority" validate:"gte=0"`
	IsActive            *bool  `json:"is_active,omitempty"`
}

// UpdateRuleRequestDTO carries a partial rule update.
type UpdateRuleRequestDTO struct {
	RuleName            *string `json:"rule_name,omitempty"`
	CustomerType        *string `json:"customer_type,omitempty" validate:"omitempty,oneof=POSTPAID PREPAID ALL"`
	TriggerDay          *int    `json:"trigger_day,omitempty" validate:"omitempty,gte=0,lte=365"`
	ActionType          *string `json:"action_type,omitempty" validate:"omitempty,oneof=NOTIFY THROTTLE BAR_OUTGOING DEACTIVATE"`
	NotificationChannel *string `json:"notification_channel,omitempty" validate:"omitempty,oneof=SMS EMAIL APP ALL"`
	Priority            *int    `json:"priority,omitempty" validate:"omitempty,gte=0"`
	IsActive            *bool   `json:"is_active,omitempty"`
}
