package inventory

import (
	"fmt"
	"strings"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// Action acción de ciclo de vida aplicable a una unidad ya asignada o en stock.
// La asignación (IN_STOCK -> ACQUIRED) no es una Action: solo ocurre vía AllocateForConsumption.
type Action string

const (
	ActionReturn    Action = "RETURN"
	ActionRepairOut Action = "REPAIR_OUT"
	ActionRepairIn  Action = "REPAIR_IN"
	ActionScrap     Action = "SCRAP"
	ActionLost      Action = "LOST"
)

// Actions lista cerrada de acciones, en el orden de la tabla de transiciones.
var Actions = []Action{ActionReturn, ActionRepairOut, ActionRepairIn, ActionScrap, ActionLost}

// Rule fila de la tabla de transiciones.
type Rule struct {
	From             []entity.UnitStatus
	To               entity.UnitStatus
	RequiresElevated bool
	Movement         entity.MovementType
}

var nonTerminal = []entity.UnitStatus{
	entity.UnitStatusInStock,
	entity.UnitStatusAcquired,
	entity.UnitStatusInRepair,
}

// transitions es la única fuente de verdad del ciclo de vida de una unidad.
var transitions = map[Action]Rule{
	ActionReturn: {
		From:     []entity.UnitStatus{entity.UnitStatusAcquired},
		To:       entity.UnitStatusInStock,
		Movement: entity.MovementTypeRETURN,
	},
	ActionRepairOut: {
		From:     []entity.UnitStatus{entity.UnitStatusAcquired},
		To:       entity.UnitStatusInRepair,
		Movement: entity.MovementTypeREPAIROUT,
	},
	ActionRepairIn: {
		From:     []entity.UnitStatus{entity.UnitStatusInRepair},
		To:       entity.UnitStatusInStock,
		Movement: entity.MovementTypeREPAIRIN,
	},
	ActionScrap: {
		From:             nonTerminal,
		To:               entity.UnitStatusScrapped,
		RequiresElevated: true,
		Movement:         entity.MovementTypeSCRAP,
	},
	ActionLost: {
		From:             nonTerminal,
		To:               entity.UnitStatusLost,
		RequiresElevated: true,
		Movement:         entity.MovementTypeLOST,
	},
}

// ParseAction convierte el nombre recibido (case-insensitive) en una Action conocida.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("acción %q: %w", s, domain.ErrInvalidInput)
	}
	return a, nil
}

// RuleFor devuelve la regla de la acción.
func RuleFor(a Action) (Rule, bool) {
	r, ok := transitions[a]
	return r, ok
}

// Transition valida la acción desde el estado actual y devuelve la regla aplicable.
// El privilegio se verifica antes que el estado: sin capacidad elevada SCRAP/LOST
// siempre responden ErrForbidden.
func Transition(current entity.UnitStatus, a Action, capability Capability) (Rule, error) {
	rule, ok := transitions[a]
	if !ok {
		return Rule{}, domain.ErrInvalidInput
	}
	if rule.RequiresElevated && !capability.Elevated() {
		return Rule{}, domain.ErrForbidden
	}
	for _, from := range rule.From {
		if from == current {
			return rule, nil
		}
	}
	return Rule{}, fmt.Errorf("%s desde %s: %w", a, current, domain.ErrInvalidTransition)
}
