package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatMetadata(w io.Writer, fileIdentifier string, metadata map[string]string) error
	FormatIdentity(w io.Writer, identity string) error
	FormatMessage(w io.Writer, message string) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showTokens bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showTokens bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats an upload result as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Uploaded: %s as %s\n", result.LocalPath, result.FileIdentifier)
	}
	return nil
}

// FormatDownload formats a download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if !f.Quiet {
		if result.LocalPath == "-" {
			_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.FileIdentifier, formatSize(result.Size))
		} else {
			_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.FileIdentifier, result.LocalPath, formatSize(result.Size))
		}
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.FileIdentifier, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.FileIdentifier)
		}
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.FileIdentifiers) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	for _, id := range result.FileIdentifiers {
		_, _ = fmt.Fprintln(w, id)
	}

	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "\n%d file(s)\n", len(result.FileIdentifiers))
	}
	return nil
}

// FormatMetadata formats a metadata map as aligned key/value lines.
func (f *HumanFormatter) FormatMetadata(w io.Writer, fileIdentifier string, metadata map[string]string) error {
	keys := make([]string, 0, len(metadata))
	maxKeyLen := 0
	for k := range metadata {
		keys = append(keys, k)
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%-*s  %s\n", maxKeyLen, k, metadata[k])
	}
	return nil
}

// FormatIdentity formats the identity as human-readable text.
func (f *HumanFormatter) FormatIdentity(w io.Writer, identity string) error {
	_, _ = fmt.Fprintln(w, identity)
	return nil
}

// FormatMessage formats a server acknowledgement as human-readable text.
func (f *HumanFormatter) FormatMessage(w io.Writer, message string) error {
	if !f.Quiet {
		_, _ = fmt.Fprintln(w, message)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats an upload result as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	return writeJSON(w, result)
}

// FormatDownload formats a download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		FileIdentifier string `json:"file_identifier"`
		Deleted        bool   `json:"deleted"`
		Error          string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			FileIdentifier: r.FileIdentifier,
			Deleted:        r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatMetadata formats a metadata map as JSON.
func (f *JSONFormatter) FormatMetadata(w io.Writer, fileIdentifier string, metadata map[string]string) error {
	return writeJSON(w, metadata)
}

// FormatIdentity formats the identity as JSON.
func (f *JSONFormatter) FormatIdentity(w io.Writer, identity string) error {
	return writeJSON(w, struct {
		Identity string `json:"identity"`
	}{Identity: identity})
}

// FormatMessage formats a server acknowledgement as JSON.
func (f *JSONFormatter) FormatMessage(w io.Writer, message string) error {
	return writeJSON(w, struct {
		Message string `json:"message"`
	}{Message: message})
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showTokens bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %-12s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "USERNAME", "TOKEN")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 12), strings.Repeat("-", 12))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %-12s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, p.Username, maskSecret(p.Token, showTokens))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showTokens bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Username: %s\n", profile.Username)
	_, _ = fmt.Fprintf(w, "Token:    %s\n", maskSecret(profile.Token, showTokens))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showTokens bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username,omitempty"`
		Token    string `json:"token,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Username: p.Username,
			Token:    maskSecret(p.Token, showTokens),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showTokens bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username"`
		Token    string `json:"token"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Username: profile.Username,
		Token:    maskSecret(profile.Token, showTokens),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
