package event

type EventType string

const (
	MedicationTaken EventType = "medication.taken"
	SymptomLogged   EventType = "symptom.logged"
	GuardianLinked  EventType = "guardian.linked"
)

// MedicationTakenPayload is published after a dose is logged.
type MedicationTakenPayload struct {
	LogID        string `json:"log_id"`
	PatientID    string `json:"patient_id"`
	MedicationID string `json:"medication_id"`
	TakenAt      string `json:"taken_at"`
}

type SymptomLoggedPayload struct {
	PatientID   string `json:"patient_id"`
	Date        string `json:"date"`
	Mood        int    `json:"mood"`
	EnergyLevel int    `json:"energy_level"`
	PainLevel   int    `json:"pain_level"`
}

type GuardianLinkedPayload struct {
	LinkID     string `json:"link_id"`
	PatientID  string `json:"patient_id"`
	GuardianID string `json:"guardian_id"`
}
