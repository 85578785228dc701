package members

import "strings"

// SelectOptions narrows a batch. Zero value selects everyone.
type SelectOptions struct {
	Services  []string `json:"services"`
	Genders   []string `json:"genders"`
	FreeWords string   `json:"free_words"`
}

func (o SelectOptions) IsZero() bool {
	return len(o.Services) == 0 && len(o.Genders) == 0 && strings.TrimSpace(o.FreeWords) == ""
}

func equalsAny(v string, needles []string) bool {
	for _, n := range needles {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(n)) {
			return true
		}
	}
	return false
}

// Select keeps input order.
func Select(ms []Member, opt SelectOptions) []Member {
	if opt.IsZero() {
		return ms
	}
	var out []Member
	for _, m := range ms {
		if len(opt.Services) > 0 && !equalsAny(m.Service.Name, opt.Services) {
			continue
		}
		if len(opt.Genders) > 0 && !equalsAny(m.Gender, opt.Genders) {
			continue
		}
		if opt.FreeWords != "" {
			hay := strings.ToLower(strings.Join([]string{m.FullName, m.PhoneNumber, m.Address, m.Service.Name}, " "))
			ok := true
			for _, k := range strings.Fields(opt.FreeWords) {
				if !strings.Contains(hay, strings.ToLower(k)) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
