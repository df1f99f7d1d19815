package rbac

import (
	"sort"
	"strings"
)

// grant is one role's permissions, indexed for lookup.
type grant struct {
	all   bool            // "*"
	areas map[string]bool // "<area>:*"
	exact map[string]bool // "<area>:<action>"
}

// Checker answers whether a role holds a permission of the form "<area>:<action>".
type Checker struct {
	grants map[string]grant
	source map[string][]string
}

// NewChecker indexes rp; nil means RolePermissions.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{grants: make(map[string]grant, len(rp)), source: rp}
	for role, perms := range rp {
		g := grant{areas: map[string]bool{}, exact: map[string]bool{}}
		for _, p := range perms {
			switch area, action := split(p); {
			case p == "*":
				g.all = true
			case action == "*":
				g.areas[area] = true
			default:
				g.exact[p] = true
			}
		}
		c.grants[role] = g
	}
	return c
}

func (c *Checker) Has(role, perm string) bool {
	g, ok := c.grants[role]
	if !ok {
		return false
	}
	if g.all || g.exact[perm] {
		return true
	}
	area, _ := split(perm)
	return g.areas[area]
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// Permissions lists the role's grants as configured, sorted; clients use it to hide
// actions the account cannot perform.
func (c *Checker) Permissions(role string) []string {
	out := append([]string{}, c.source[role]...)
	sort.Strings(out)
	return out
}

func split(perm string) (area, action string) {
	area, action, _ = strings.Cut(perm, ":")
	return area, action
}
