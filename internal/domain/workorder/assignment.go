package workorder

import (
	"github.com/google/uuid"
)

// AssigneeKind discriminates the assignment variants
type AssigneeKind string

const (
	AssigneeIndividual AssigneeKind = "individual"
	AssigneeTeam       AssigneeKind = "team"
)

// Assignment is either an Individual or a Team. A nil Assignment means unassigned.
type Assignment interface {
	Kind() AssigneeKind
	AssigneeID() uuid.UUID
	isAssignment()
}

// Individual assigns the order to one user
type Individual struct {
	UserID uuid.UUID
}

func (i Individual) Kind() AssigneeKind    { return AssigneeIndividual }
func (i Individual) AssigneeID() uuid.UUID { return i.UserID }
func (Individual) isAssignment()           {}

// Team assigns the order to a team
type Team struct {
	TeamID uuid.UUID
}

func (t Team) Kind() AssigneeKind    { return AssigneeTeam }
func (t Team) AssigneeID() uuid.UUID { return t.TeamID }
func (Team) isAssignment()           {}

// NewAssignment builds the variant for kind. An empty kind returns nil.
func NewAssignment(kind AssigneeKind, id uuid.UUID) (Assignment, bool) {
	switch kind {
	case AssigneeIndividual:
		return Individual{UserID: id}, id != uuid.Nil
	case AssigneeTeam:
		return Team{TeamID: id}, id != uuid.Nil
	case "":
		return nil, true
	default:
		return nil, false
	}
}

// SameAssignment compares two assignments, treating nil as unassigned
func SameAssignment(a, b Assignment) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.AssigneeID() == b.AssigneeID()
}

// DescribeAssignment renders an assignment for the activity ledger
func DescribeAssignment(a Assignment) string {
	if a == nil {
		return "unassigned"
	}
	return string(a.Kind()) + ":" + a.AssigneeID().String()
}

// AssignmentFromColumns rebuilds an assignment from its persisted columns
func AssignmentFromColumns(userID, teamID *uuid.UUID) Assignment {
	if userID != nil {
		return Individual{UserID: *userID}
	}
	if teamID != nil {
		return Team{TeamID: *teamID}
	}
	return nil
}

// AssignmentToColumns splits an assignment into user and team columns
func AssignmentToColumns(a Assignment) (userID, teamID *uuid.UUID) {
	switch v := a.(type) {
	case Individual:
		id := v.UserID
		return &id, nil
	case Team:
		id := v.TeamID
		return nil, &id
	default:
		return nil, nil
	}
}
