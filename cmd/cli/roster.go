package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aryan0dhankhar/taskdesk/internal/handler"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

// roster is the YAML file accepted by "employees import":
//
//	employees:
//	  - first_name: Dana
//	    last_name: Scully
//	    email: dana@example.com
//	    department: Finance
type roster struct {
	Employees []service.BulkEmployeeRow `yaml:"employees"`
}

func parseRoster(r io.Reader) (*handler.BulkEmployeeRequest, error) {
	var doc roster
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(doc.Employees) == 0 {
		return nil, fmt.Errorf("roster has no employees")
	}

	req := &handler.BulkEmployeeRequest{Employees: make([]handler.BulkEmployeeRow, 0, len(doc.Employees))}
	for _, e := range doc.Employees {
		req.Employees = append(req.Employees, handler.BulkEmployeeRow{
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Email:      e.Email,
			Department: e.Department,
			Position:   e.Position,
		})
	}
	return req, nil
}
