package fixture

import (
	"errors"
	"fmt"
	"sort"

	commonerrors "github.com/gruntwork-io/go-commons/errors"
)

type Group struct {
	Fixtures map[string]Interface
}

// Create a new fixture Group object with reasonable defaults for real usage.
func NewGroup() *Group {
	return &Group{
		Fixtures: make(map[string]Interface),
	}
}

func (fg *Group) GetFixture(id string) (Interface, error) {
	if fixture, found := fg.Fixtures[id]; found {
		return fixture, nil
	}
	return nil, fmt.Errorf("the fixture group does not contain a fixture with the id: %s", id)
}

func (fg *Group) AddFixture(id string, fixture Interface) {
	fg.Fixtures[id] = fixture
}

// HasFixture returns true if the group contains a fixture with the given id.
func (fg *Group) HasFixture(id string) bool {
	_, found := fg.Fixtures[id]
	return found
}

// HasFixtures returns true if there are fixtures in the group
func (fg *Group) HasFixtures() bool {
	return len(fg.Fixtures) > 0
}

// Count returns the number of fixtures in the group
func (fg *Group) Count() int {
	return len(fg.Fixtures)
}

// Names returns the fixture ids in sorted order.
func (fg *Group) Names() []string {
	names := make([]string, 0, len(fg.Fixtures))
	for id := range fg.Fixtures {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new group holding the fixtures of fg and others. Later
// groups win on id collisions.
func (fg *Group) Merge(others ...*Group) *Group {
	merged := NewGroup()
	for id, fix := range fg.Fixtures {
		merged.AddFixture(id, fix)
	}
	for _, other := range others {
		for id, fix := range other.Fixtures {
			merged.AddFixture(id, fix)
		}
	}
	return merged
}

// Stop stops every fixture in the group and returns the collected errors.
func (fg *Group) Stop() error {
	var errs []error
	for _, id := range fg.Names() {
		if err := fg.Fixtures[id].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return commonerrors.WithStackTrace(errors.Join(errs...))
	}
	return nil
}
