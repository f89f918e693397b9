package enrollment

type Status string

const (
	StatusEnrolled Status = "enrolled"
)

func (s Status) String() string {
	return string(s)
}

const EventTypeEnrollmentCreated = "enrollment.created"
