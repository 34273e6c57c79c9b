package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

type PlayerForecastRequest struct {
	PlayerID string `param:"id" json:"player_id" validate:"required"`
	Refresh  bool   `query:"refresh" json:"refresh"`
}

type HistoryForecastRequest struct {
	History []SeasonRecord `json:"history" validate:"required,min=1,max=100,dive"`
}

type BatchForecastRequest struct {
	PlayerIDs []string `json:"player_ids" validate:"required,min=1,max=500,dive,required"`
}

// ForecastRequestMessage is the payload of a forecast request event.
type ForecastRequestMessage struct {
	PlayerID string `json:"player_id" validate:"required"`
}

type ListPlayersRequest struct {
	Championship string `query:"championship" json:"championship"`
	Year         int    `query:"year" json:"year" validate:"omitempty,gte=1900,lte=2200"`
}
