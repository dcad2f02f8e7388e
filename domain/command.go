package domain

// Intent is a request to change a consultation's state. Intents are
// validated against the current projection before any event is appended;
// a rejected intent leaves the event stream untouched.
type Intent interface {
	Consultation() ConsultationID
}

type StartConsultation struct {
	ConsultationID ConsultationID `validate:"required"`
	ActorID        string         `validate:"required"`
	PatientRef     string         `validate:"required"`
	ClinicianID    string         `validate:"required"`
}

func (c StartConsultation) Consultation() ConsultationID { return c.ConsultationID }

type AttachAudio struct {
	ConsultationID ConsultationID `validate:"required"`
	ActorID        string         `validate:"required"`
	AudioRef       AudioRef       `validate:"required"`
}

func (c AttachAudio) Consultation() ConsultationID { return c.ConsultationID }

type UpdateSection struct {
	ConsultationID ConsultationID `validate:"required"`
	ActorID        string         `validate:"required"`
	Section        Section        `validate:"required"`
	Content        string         `validate:"required"`
}

func (c UpdateSection) Consultation() ConsultationID { return c.ConsultationID }

// AmendSection is the only intent accepted after finalization. It appends a
// corrective event that the projection surfaces as an amendment.
type AmendSection struct {
	ConsultationID ConsultationID `validate:"required"`
	ActorID        string         `validate:"required"`
	Section        Section        `validate:"required"`
	Content        string         `validate:"required"`
	Reason         string         `validate:"required"`
}

func (c AmendSection) Consultation() ConsultationID { return c.ConsultationID }

type Finalize struct {
	ConsultationID ConsultationID `validate:"required"`
	ActorID        string         `validate:"required"`
}

func (c Finalize) Consultation() ConsultationID { return c.ConsultationID }
