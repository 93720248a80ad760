package recruitment

import "errors"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobExpired        = errors.New("job posting has expired")
	ErrApplicantNotStaff = errors.New("no staff record for this user")
	ErrUnsupportedCV     = errors.New("cv must be a pdf, docx or txt file")
	ErrNoJobRows         = errors.New("no job data found in the file")
)
