package models

import "time"

type EntryKind int

const (
	KindOther EntryKind = iota
	KindFile
	KindDirectory
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "dir"
	default:
		return "other"
	}
}

func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RemoteEntry is one item returned by a remote stat or listing.
type RemoteEntry struct {
	Name       string    `json:"name"`
	FullPath   string    `json:"full_path"`
	Kind       EntryKind `json:"kind"`
	Size       uint64    `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ProgressSample is one throttled progress observation for a single file.
type ProgressSample struct {
	FileName          string         `json:"file_name"`
	BytesTransferred  uint64         `json:"bytes_transferred"`
	TotalSize         uint64         `json:"total_size"`
	ElapsedSinceStart time.Duration  `json:"elapsed_since_start"`
	SpeedBytesPerSec  float64        `json:"speed_bytes_per_sec"`
	EtaRemaining      *time.Duration `json:"eta_remaining,omitempty"`
}

func (s ProgressSample) PercentComplete() float64 {
	if s.TotalSize == 0 {
		return 0
	}
	return float64(s.BytesTransferred) / float64(s.TotalSize) * 100
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Kind      ErrorKind `json:"kind,omitempty"`
	Timestamp string    `json:"timestamp"`
	Command   string    `json:"command"`
}

type ConnectionResult struct {
	Protocol     string `json:"protocol"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ProbedPath   string `json:"probed_path"`
	PathReadable bool   `json:"path_readable"`
	Warning      string `json:"warning,omitempty"`
	CheckedAt    string `json:"checked_at"`
	Duration     string `json:"duration"`
}

type ListResult struct {
	Host           string        `json:"host"`
	Path           string        `json:"path"`
	Entries        []RemoteEntry `json:"entries"`
	FileCount      int           `json:"file_count"`
	DirectoryCount int           `json:"directory_count"`
	OtherCount     int           `json:"other_count"`
	TotalSizeBytes uint64        `json:"total_size_bytes"`
	TotalSizeHuman string        `json:"total_size_human"`
	OperationTime  string        `json:"operation_time"`
}
