package domain

import (
	"fmt"
	"strings"
)

// NodeKind is the closed set of checklist node kinds. The four live kinds are
// used inside an implementation; the plano_* kinds are their template-only
// prototypes.
type NodeKind string

const (
	KindFase      NodeKind = "fase"
	KindGrupo     NodeKind = "grupo"
	KindTarefa    NodeKind = "tarefa"
	KindSubtarefa NodeKind = "subtarefa"

	KindPlanoFase      NodeKind = "plano_fase"
	KindPlanoGrupo     NodeKind = "plano_grupo"
	KindPlanoTarefa    NodeKind = "plano_tarefa"
	KindPlanoSubtarefa NodeKind = "plano_subtarefa"
)

// NodeClass separates pure containers from leaves that carry completion state.
type NodeClass int

const (
	ClassContainer NodeClass = iota
	ClassLeaf
)

type kindInfo struct {
	class    NodeClass
	level    int
	template bool
	live     NodeKind
	proto    NodeKind
}

var kindTable = map[NodeKind]kindInfo{
	KindFase:           {class: ClassContainer, level: 0, live: KindFase, proto: KindPlanoFase},
	KindGrupo:          {class: ClassContainer, level: 1, live: KindGrupo, proto: KindPlanoGrupo},
	KindTarefa:         {class: ClassLeaf, level: 2, live: KindTarefa, proto: KindPlanoTarefa},
	KindSubtarefa:      {class: ClassLeaf, level: 3, live: KindSubtarefa, proto: KindPlanoSubtarefa},
	KindPlanoFase:      {class: ClassContainer, level: 0, template: true, live: KindFase, proto: KindPlanoFase},
	KindPlanoGrupo:     {class: ClassContainer, level: 1, template: true, live: KindGrupo, proto: KindPlanoGrupo},
	KindPlanoTarefa:    {class: ClassLeaf, level: 2, template: true, live: KindTarefa, proto: KindPlanoTarefa},
	KindPlanoSubtarefa: {class: ClassLeaf, level: 3, template: true, live: KindSubtarefa, proto: KindPlanoSubtarefa},
}

// ParseNodeKind accepts any of the eight kind names (case-insensitive).
func ParseNodeKind(s string) (NodeKind, error) {
	k := NodeKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindTable[k]; !ok {
		return "", NewValidationError("kind", fmt.Sprintf("unknown node kind %q", s))
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k NodeKind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// Class returns whether nodes of this kind are containers or leaves.
func (k NodeKind) Class() NodeClass { return kindTable[k].class }

// IsLeaf reports whether the kind carries a completion flag.
func (k NodeKind) IsLeaf() bool { return k.Valid() && kindTable[k].class == ClassLeaf }

// IsTemplate reports whether the kind is a template-only prototype kind.
func (k NodeKind) IsTemplate() bool { return kindTable[k].template }

// Level is the nesting depth: fase 0, grupo 1, tarefa 2, subtarefa 3.
func (k NodeKind) Level() int { return kindTable[k].level }

// Live maps a template kind to its live counterpart (plano_tarefa -> tarefa).
// Live kinds map to themselves.
func (k NodeKind) Live() NodeKind { return kindTable[k].live }

// Prototype maps a live kind to its template counterpart.
func (k NodeKind) Prototype() NodeKind { return kindTable[k].proto }

// CanParent reports whether a node of kind k may be the direct parent of a
// node of kind child. Both must be on the same side (live or template) and
// child must sit exactly one level deeper.
func (k NodeKind) CanParent(child NodeKind) bool {
	if !k.Valid() || !child.Valid() {
		return false
	}
	if k.IsTemplate() != child.IsTemplate() {
		return false
	}
	return child.Level() == k.Level()+1
}

// Tag is a reporting category drawn from a closed set of system tags.
type Tag string

const (
	TagNone         Tag = ""
	TagCliente      Tag = "Cliente"
	TagReuniao      Tag = "Reunião"
	TagAcaoInterna  Tag = "Ação interna"
	TagTreinamento  Tag = "Treinamento"
	TagDocumentacao Tag = "Documentação"
)

// SystemTags lists the accepted tags in display order.
var SystemTags = []Tag{TagCliente, TagReuniao, TagAcaoInterna, TagTreinamento, TagDocumentacao}

// ParseTag matches s against the system tags, ignoring case. Empty is TagNone.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TagNone, nil
	}
	for _, t := range SystemTags {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", NewValidationError("tag", fmt.Sprintf("unknown tag %q", s))
}

type TemplateStatus string

const (
	TemplateEmAndamento TemplateStatus = "em_andamento"
	TemplateConcluido   TemplateStatus = "concluido"
)

// MaxActiveTemplates is the system-wide cap on em_andamento templates.
const MaxActiveTemplates = 5

type EventKind string

const (
	EventStatusChanged      EventKind = "status_changed"
	EventDeadlineChanged    EventKind = "deadline_changed"
	EventResponsibleChanged EventKind = "responsible_changed"
	EventCommentAdded       EventKind = "comment_added"
	EventCommentDeleted     EventKind = "comment_deleted"
	EventNodeDeleted        EventKind = "node_deleted"
	EventPlanApplied        EventKind = "plan_applied"
)
