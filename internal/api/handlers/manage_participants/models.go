package manage_participants

// MoveParticipantRequest HTTP request model
type MoveParticipantRequest struct {
	TargetReservationID int64 `json:"targetReservationId"`
}
