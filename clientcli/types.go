package clientcli

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath      string
	FileIdentifier string            // empty = derive from the local file name
	Metadata       map[string]string // extra metadata fields
}

// UploadResult represents the result of uploading a file.
type UploadResult struct {
	LocalPath      string            `json:"local_path"`
	FileIdentifier string            `json:"file_identifier"`
	Metadata       map[string]string `json:"metadata"`
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	FileIdentifier string
	LocalPath      string // empty = derive from server filename, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	FileIdentifier string `json:"file_identifier"`
	LocalPath      string `json:"local_path"`
	Size           int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	FileIdentifiers []string
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	FileIdentifier string `json:"file_identifier"`
	Deleted        bool   `json:"deleted"`
	Err            error  `json:"-"` // nil on success
}

// ListResult contains the caller's file identifiers.
type ListResult struct {
	FileIdentifiers []string `json:"file_identifiers"`
}

// loginResponse mirrors the server's login response.
type loginResponse struct {
	JWTToken string `json:"jwt_token"`
}
