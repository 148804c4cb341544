package models

type ErrorKind string

const (
	ErrorKindValidation     ErrorKind = "validation_error"
	ErrorKindConnection     ErrorKind = "connection_error"
	ErrorKindRemoteNotFound ErrorKind = "remote_not_found_error"
	ErrorKindIsDirectory    ErrorKind = "is_directory_error"
	ErrorKindRemoteList     ErrorKind = "remote_list_error"
	ErrorKindTransferIO     ErrorKind = "transfer_io_error"
	ErrorKindCancelled      ErrorKind = "cancelled_error"
	ErrorKindUnknown        ErrorKind = "unknown_error"
)

// TransferTarget is the immutable input of one copy run.
type TransferTarget struct {
	RemotePath string `json:"remote_path"`
	LocalPath  string `json:"local_path"`
	Recursive  bool   `json:"recursive"`
}

type TransferItem struct {
	RemotePath   string `json:"remote_path"`
	LocalPath    string `json:"local_path"`
	Size         uint64 `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

// CopyOutcome is returned for every copy run, failed or not. Files written
// before a failure stay listed in Items but Succeeded is false.
type CopyOutcome struct {
	Protocol           string         `json:"protocol,omitempty"`
	Host               string         `json:"host"`
	SourcePath         string         `json:"source_path"`
	DestinationPath    string         `json:"destination_path"`
	Recursive          bool           `json:"recursive"`
	Succeeded          bool           `json:"succeeded"`
	BytesCopied        uint64         `json:"bytes_copied"`
	BytesCopiedHuman   string         `json:"bytes_copied_human"`
	FilesCopied        int            `json:"files_copied"`
	DirectoriesCreated int            `json:"directories_created"`
	Skipped            int            `json:"skipped"`
	Items              []TransferItem `json:"items"`
	Error              ErrorKind      `json:"error,omitempty"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	OperationTime      string         `json:"operation_time"`
	CopyDuration       string         `json:"copy_duration"`
}
