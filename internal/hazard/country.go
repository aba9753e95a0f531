package hazard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/biter777/countries"
)

// Country is an entry of the API's country list.
type Country struct {
	Name string `json:"name"`
	ISO3 string `json:"iso_3"`
}

// UnmarshalJSON accepts both {"name": ..., "iso_3": ...} objects and
// [name, iso_3] pairs.
func (c *Country) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []string
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("country pair has %d elements, want 2", len(pair))
		}
		c.Name, c.ISO3 = pair[0], pair[1]
		return nil
	}

	type plain Country
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Country(p)
	return nil
}

// DisplayName returns the name to show for the country. When the API left
// the name empty, the ISO 3166 English name for the code is used, falling
// back to the code itself.
func (c Country) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	code := strings.TrimSpace(c.ISO3)
	if cc := countries.ByName(code); cc != countries.Unknown {
		return cc.String()
	}
	return code
}
