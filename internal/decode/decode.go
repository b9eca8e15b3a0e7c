package decode

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/ledgerlens/internal/payload"
)

// Fallback literals for string attributes that are absent.
const (
	DefaultCategory        = "General"
	DefaultExperienceLevel = "Any"
	DefaultStatus          = "Open"
)

// Alias tables. The first present, non-null, non-blank alias wins.
var (
	objectIDAliases    = []string{"id", "object_id", "objectId"}
	keyAliases         = []string{"project_id", "projectId", "numeric_id", "key"}
	titleAliases       = []string{"title", "name"}
	summaryAliases     = []string{"short_summary", "shortSummary", "summary"}
	descriptionAliases = []string{"description", "long_description", "longDescription"}
	categoryAliases    = []string{"category"}
	levelAliases       = []string{"experience_level", "experienceLevel", "level"}
	budgetMinAliases   = []string{"budget_min", "budgetMin", "min_budget"}
	budgetMaxAliases   = []string{"budget_max", "budgetMax", "max_budget"}
	timelineAliases    = []string{"timeline_weeks", "timelineWeeks", "timeline"}
	skillsAliases      = []string{"required_skills", "requiredSkills"}
	skillsFallback     = "skills"
	ownerAliases       = []string{"owner", "creator", "owner_address"}
	statusAliases      = []string{"application_status", "applicationStatus", "status"}
	createdAliases     = []string{"creation_timestamp", "creationTimestamp", "created_at", "createdAt", "timestamp_ms"}
	attachmentAliases  = []string{"attachments", "attachment_blob_ids", "attachmentBlobIds"}
)

// recordAliases lists every alias that counts as a record attribute.
// Identity aliases (object id, key) are excluded: a payload carrying only
// an id is not a record.
var recordAliases = concat(
	titleAliases, summaryAliases, descriptionAliases, categoryAliases,
	levelAliases, budgetMinAliases, budgetMaxAliases, timelineAliases,
	skillsAliases, []string{skillsFallback}, ownerAliases, statusAliases,
	createdAliases, attachmentAliases,
)

// Attributes is the flat attribute map decoded from one payload.
type Attributes struct {
	// ObjectID is the record's embedded ledger object id, if it carries one.
	ObjectID string `json:"object_id,omitempty"`

	// Key is the record's embedded numeric key. Valid only when HasKey.
	Key    uint64 `json:"key,omitempty"`
	HasKey bool   `json:"has_key"`

	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	ExperienceLevel string   `json:"experience_level"`
	BudgetMin       uint64   `json:"budget_min"`
	BudgetMax       uint64   `json:"budget_max"`
	TimelineWeeks   uint64   `json:"timeline_weeks"`
	Skills          []string `json:"skills"`
	Owner           string   `json:"owner"`
	Status          string   `json:"status"`
	CreatedAtMs     int64    `json:"created_at_ms"`
	Attachments     []string `json:"attachments"`

	recognized int
}

// Empty reports whether the payload carried no record attributes. The
// resolver treats an empty map as a decode failure, never as a record.
func (a Attributes) Empty() bool {
	return a.recognized == 0
}

// Decode unwraps raw and extracts record attributes. It never fails: a
// payload without an attribute object yields an empty Attributes.
func Decode(raw payload.Value) Attributes {
	obj, _ := Unwrap(raw)
	if obj == nil || !hasRecordAttributes(obj) {
		return Attributes{}
	}

	a := Attributes{
		Title:           stringAttr(obj, titleAliases),
		Summary:         stringAttr(obj, summaryAliases),
		Description:     stringAttr(obj, descriptionAliases),
		Category:        orDefault(stringAttr(obj, categoryAliases), DefaultCategory),
		ExperienceLevel: orDefault(stringAttr(obj, levelAliases), DefaultExperienceLevel),
		BudgetMin:       uintAttr(obj, budgetMinAliases),
		BudgetMax:       uintAttr(obj, budgetMaxAliases),
		TimelineWeeks:   uintAttr(obj, timelineAliases),
		Skills:          skillsAttr(obj),
		Owner:           stringAttr(obj, ownerAliases),
		Status:          orDefault(stringAttr(obj, statusAliases), DefaultStatus),
		CreatedAtMs:     intAttr(obj, createdAliases),
		Attachments:     listAttr(obj, attachmentAliases),
	}
	for _, alias := range recordAliases {
		if _, ok := obj[alias]; ok {
			a.recognized++
		}
	}

	a.ObjectID = objectID(obj)
	if v, _, ok := obj.First(keyAliases...); ok {
		if k, ok := embeddedKey(v); ok {
			a.Key, a.HasKey = k, true
		} else if s, ok := v.(payload.String); ok && a.ObjectID == "" && looksLikeObjectID(string(s)) {
			// Events emit the created object's id under project_id.
			a.ObjectID = strings.TrimSpace(string(s))
		}
	}

	return a
}

// hasRecordAttributes reports whether obj has at least one record alias.
func hasRecordAttributes(obj payload.Object) bool {
	for _, alias := range recordAliases {
		if _, ok := obj[alias]; ok {
			return true
		}
	}
	return false
}

// objectID reads the embedded id, accepting the ledger's UID rendering
// {"id": {"id": "0x..."}} as well as a plain string.
func objectID(obj payload.Object) string {
	v, _, ok := obj.First(objectIDAliases...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case payload.String:
		return strings.TrimSpace(string(val))
	case payload.Object:
		if inner, ok := val.Get("id"); ok {
			if s, ok := inner.(payload.String); ok {
				return strings.TrimSpace(string(s))
			}
		}
	}
	return ""
}

func looksLikeObjectID(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "0x") && len(s) > 2
}

// stringAttr returns the first alias holding a non-blank scalar.
func stringAttr(obj payload.Object, aliases []string) string {
	for _, alias := range aliases {
		v, ok := obj.Get(alias)
		if !ok {
			continue
		}
		if s, ok := payload.Text(v); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// uintAttr coerces the first present alias to a non-negative integer.
// Anything that does not parse as a finite non-negative number yields 0.
func uintAttr(obj payload.Object, aliases []string) uint64 {
	v, _, ok := obj.First(aliases...)
	if !ok {
		return 0
	}
	text, ok := payload.Text(v)
	if !ok {
		return 0
	}
	text = strings.TrimSpace(text)
	if u, err := strconv.ParseUint(text, 10, 64); err == nil {
		return u
	}
	f, ok := payload.Number(text).Float64()
	if !ok || !payload.IsNumericText(text) || f < 0 || f >= math.MaxUint64 {
		return 0
	}
	return uint64(f)
}

// intAttr coerces the first present alias to a signed integer, 0 on failure.
func intAttr(obj payload.Object, aliases []string) int64 {
	v, _, ok := obj.First(aliases...)
	if !ok {
		return 0
	}
	text, ok := payload.Text(v)
	if !ok {
		return 0
	}
	text = strings.TrimSpace(text)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	f, ok := payload.Number(text).Float64()
	if !ok || !payload.IsNumericText(text) || f <= math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// skillsAttr reads the required-skill list. The singular "skills" field is
// consulted only when no primary alias is present, and may be either a
// sequence or a comma-separated string.
func skillsAttr(obj payload.Object) []string {
	if v, _, ok := obj.First(skillsAliases...); ok {
		if arr, ok := v.(payload.Array); ok {
			return stringList(arr)
		}
		return []string{}
	}

	v, ok := obj.Get(skillsFallback)
	if !ok {
		return []string{}
	}
	switch val := v.(type) {
	case payload.Array:
		return stringList(val)
	case payload.String:
		out := []string{}
		for _, part := range strings.Split(string(val), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return []string{}
	}
}

// listAttr reads a sequence attribute; non-sequences yield an empty list.
func listAttr(obj payload.Object, aliases []string) []string {
	v, _, ok := obj.First(aliases...)
	if !ok {
		return []string{}
	}
	arr, ok := v.(payload.Array)
	if !ok {
		return []string{}
	}
	return stringList(arr)
}

// stringList keeps scalar elements in order, duplicates included.
func stringList(arr payload.Array) []string {
	out := make([]string, 0, len(arr))
	for _, elem := range arr {
		if s, ok := payload.Text(elem); ok {
			out = append(out, s)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
