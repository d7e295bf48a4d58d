package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
)

// Directory is an in-memory employee.Directory.
type Directory struct {
	mu        sync.RWMutex
	employees map[string]employee.Employee
}

var _ employee.Directory = (*Directory)(nil)

func NewDirectory(employees ...employee.Employee) *Directory {
	d := &Directory{employees: make(map[string]employee.Employee)}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

// Put adds or replaces an employee.
func (d *Directory) Put(e employee.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[e.ID] = e
}

// GetByID implements employee.Directory.
func (d *Directory) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// ListActive implements employee.Directory.
func (d *Directory) ListActive(ctx context.Context) ([]employee.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []employee.Employee
	for _, e := range d.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ParseEmployees reads "id=Full Name" entries into active, listed employees.
func ParseEmployees(entries []string) ([]employee.Employee, error) {
	out := make([]employee.Employee, 0, len(entries))
	for _, entry := range entries {
		id, name, ok := strings.Cut(entry, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return nil, fmt.Errorf("invalid employee entry %q, want id=Full Name", entry)
		}
		out = append(out, employee.Employee{
			ID:                   id,
			FullName:             name,
			Active:               true,
			ShowInAttendanceList: true,
		})
	}
	return out, nil
}
