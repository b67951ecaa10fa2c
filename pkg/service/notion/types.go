package notion

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

// Property names on the roster board. The board is maintained by humans, so
// these are names rather than IDs; the schema cache verifies they exist.
const (
	propEmail      = "Email"
	propName       = "Name"
	propPhone      = "Phone"
	propStatus     = "Status"
	propStatusDate = "Status Date"
)

// contactColumnPattern matches the numbered contact columns on the roster
// board, e.g. "Partner 1 Email" or "Team Member 2 Phone"
var contactColumnPattern = regexp.MustCompile(`^(Partner|Team Member) (\d+) (Name|Email|Phone)$`)

func richTextValue(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return joinRichText(p.Title)
	case *notionapi.RichTextProperty:
		return joinRichText(p.RichText)
	case *notionapi.EmailProperty:
		return p.Email
	case *notionapi.PhoneNumberProperty:
		return p.PhoneNumber
	case *notionapi.SelectProperty:
		return p.Select.Name
	default:
		return ""
	}
}

func joinRichText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(b.String())
}

// pageContacts extracts the numbered contact columns with the given prefix
// ("Partner" or "Team Member"), ordered by column index
func pageContacts(props notionapi.Properties, prefix string) []model.Contact {
	byIndex := map[int]*model.Contact{}

	for name, prop := range props {
		m := contactColumnPattern.FindStringSubmatch(name)
		if m == nil || m[1] != prefix {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		value := richTextValue(prop)
		if value == "" {
			continue
		}

		c, ok := byIndex[idx]
		if !ok {
			c = &model.Contact{}
			byIndex[idx] = c
		}
		switch m[3] {
		case "Name":
			c.Name = value
		case "Email":
			c.Email = model.NormalizeEmail(value)
		case "Phone":
			c.Phone = value
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	contacts := make([]model.Contact, 0, len(indexes))
	for _, idx := range indexes {
		c := byIndex[idx]
		if c.Email == "" && c.Phone == "" && c.Name == "" {
			continue
		}
		contacts = append(contacts, *c)
	}
	return contacts
}
