// pkg/core/plan.go
package core

// PlanElement is a named region of the plan document representing a
// physical component (wall, slab, column), used for attribute lookup
// when a marker is placed on top of it.
type PlanElement struct {
	ElementID        string            `json:"elementId"`
	Name             string            `json:"name"`
	Category         string            `json:"category"`
	StaticProperties map[string]string `json:"staticProperties,omitempty"`
}

// Material returns the element's material static property, or "" when
// not recorded.
func (e *PlanElement) Material() string {
	if e.StaticProperties == nil {
		return ""
	}
	return e.StaticProperties["material"]
}
