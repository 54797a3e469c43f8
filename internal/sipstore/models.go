package sipstore

import "time"

// Status represents the lifecycle of a SIP.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCreated    Status = "sip_created"
	StatusUploading  Status = "uploading"
	StatusUploaded   Status = "uploaded"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
)

var allStatuses = []Status{
	StatusInProgress,
	StatusCreated,
	StatusUploading,
	StatusUploaded,
	StatusAccepted,
	StatusRejected,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// KnownStatus reports whether the value is one of the lifecycle statuses.
func KnownStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

// Dossier is a registered source folder.
type Dossier struct {
	ID       int64
	Label    string
	Path     string
	Disabled bool
}

// SIP is one submission package under construction or done.
type SIP struct {
	ID           string
	Name         string
	Status       Status
	SeriesID     string
	SeriesName   string
	SeriesStart  string
	SeriesEnd    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PackageFileName is the name of the packaged archive for this SIP.
func (s *SIP) PackageFileName() string {
	return s.packageBase() + ".zip"
}

// SidecarFileName is the name of the checksum sidecar for this SIP.
func (s *SIP) SidecarFileName() string {
	return s.packageBase() + ".xml"
}

func (s *SIP) packageBase() string {
	if s.SeriesID == "" {
		return s.Name
	}
	return s.SeriesID + "-" + s.Name
}

// HasSeries reports whether an archival series has been attached.
func (s *SIP) HasSeries() bool {
	return s.SeriesID != ""
}
