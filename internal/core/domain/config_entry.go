package domain

// Status classifies one setting key after comparing local and remote values.
type Status string

const (
	StatusMatch      Status = "MATCH"
	StatusMismatch   Status = "MISMATCH"
	StatusLocalOnly  Status = "LOCAL_ONLY"
	StatusRemoteOnly Status = "REMOTE_ONLY"
)

// AllStatuses is the default render filter.
var AllStatuses = []Status{StatusMatch, StatusMismatch, StatusLocalOnly, StatusRemoteOnly}

// Marker is the single character prefix used when rendering an entry.
func (s Status) Marker() string {
	switch s {
	case StatusMatch:
		return "="
	case StatusMismatch:
		return "!"
	case StatusLocalOnly:
		return "+"
	case StatusRemoteOnly:
		return "?"
	default:
		return " "
	}
}

// NeedsUpdate reports whether applying the local value would change the remote store.
func (s Status) NeedsUpdate() bool {
	return s == StatusMismatch || s == StatusLocalOnly
}

func (s Status) String() string {
	return string(s)
}

// ConfigEntry is one key of a settings diff. LocalValue is nil when the key
// exists only remotely, RemoteValue is nil when it exists only locally.
type ConfigEntry struct {
	Key         string
	LocalValue  *string
	RemoteValue *string
	Status      Status
}

func (e ConfigEntry) Local() string {
	if e.LocalValue == nil {
		return ""
	}
	return *e.LocalValue
}

func (e ConfigEntry) Remote() string {
	if e.RemoteValue == nil {
		return ""
	}
	return *e.RemoteValue
}

// FilterEntries keeps the entries whose status is in statuses, preserving order.
// An empty filter keeps everything.
func FilterEntries(entries []ConfigEntry, statuses ...Status) []ConfigEntry {
	if len(statuses) == 0 {
		return entries
	}
	wanted := make(map[Status]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}
	out := make([]ConfigEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := wanted[e.Status]; ok {
			out = append(out, e)
		}
	}
	return out
}

// PendingUpdates returns the entries that would be pushed to the remote store.
func PendingUpdates(entries []ConfigEntry) []ConfigEntry {
	return FilterEntries(entries, StatusMismatch, StatusLocalOnly)
}

// UpdateSet turns pending updates into the key/value map sent to the platform.
func UpdateSet(entries []ConfigEntry) map[string]string {
	updates := make(map[string]string)
	for _, e := range entries {
		if e.Status.NeedsUpdate() {
			updates[e.Key] = e.Local()
		}
	}
	return updates
}
