package lattice

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/sanitize"
)

// CommandOp names an editor operation in a serialized Command.
type CommandOp string

const (
	CmdAdd             CommandOp = "add"
	CmdInsert          CommandOp = "insert"
	CmdTemplate        CommandOp = "template"
	CmdRemove          CommandOp = "remove"
	CmdRemoveSelection CommandOp = "remove_selection"
	CmdDuplicate       CommandOp = "duplicate"
	CmdUpdate          CommandOp = "update"
	CmdResize          CommandOp = "resize"
	CmdMove            CommandOp = "move"
	CmdUndo            CommandOp = "undo"
	CmdRedo            CommandOp = "redo"
)

// Command is the wire form of an editor operation, used by transports that
// cannot call the Go API directly. Only the fields of the op are read.
type Command struct {
	Op CommandOp `json:"op"`

	// add
	Type  domain.ComponentType `json:"type,omitempty"`
	Props map[string]any       `json:"props,omitempty"`

	// insert
	Node *domain.Node `json:"node,omitempty"`

	// template
	Template string `json:"template,omitempty"`

	// remove, duplicate, update, resize
	ID string `json:"id,omitempty"`

	// remove_selection
	IDs []string `json:"ids,omitempty"`

	// update, resize
	Patch domain.Patch `json:"patch,omitempty"`

	// add, insert, template
	At domain.Location `json:"at"`

	// move
	From *domain.Location `json:"from,omitempty"`
	To   *domain.Location `json:"to,omitempty"`
}

// CommandResult reports the outcome of Execute.
type CommandResult struct {
	Changed bool `json:"changed"`
	// ID is the id of the created component for add and template.
	ID       string `json:"id,omitempty"`
	Revision uint64 `json:"revision"`
	Message  string `json:"message,omitempty"`
}

// Execute dispatches cmd to the matching editor operation.
// Malformed commands return an error wrapping domain.ErrInvalidCommand.
func (e *Editor) Execute(ctx context.Context, cmd Command) (CommandResult, error) {
	res, _, err := e.ExecuteDiff(ctx, cmd)
	return res, err
}

// ExecuteDiff is Execute that also returns the structural diff of the
// commit, or nil when nothing changed. The diff is taken from the documents
// on either side of this command, so concurrent commands do not leak into it.
func (e *Editor) ExecuteDiff(ctx context.Context, cmd Command) (CommandResult, *domain.DocumentDiff, error) {
	var (
		res CommandResult
		c   change
		err error
	)

	if err := sanitizeCommand(&cmd); err != nil {
		return res, nil, fmt.Errorf("%w: %v", domain.ErrInvalidCommand, err)
	}

	switch cmd.Op {
	case CmdAdd:
		if cmd.Type == "" {
			return res, nil, invalid(cmd.Op, "type")
		}
		node := domain.NewNode(e.ids.NewID(), cmd.Type, cmd.Props)
		c, err = e.insert(cmd.At, node)
		if c.changed {
			res.ID = node.ID
		}
	case CmdInsert:
		if cmd.Node == nil {
			return res, nil, invalid(cmd.Op, "node")
		}
		c, err = e.insert(cmd.At, cmd.Node)
		if c.changed {
			res.ID = cmd.Node.ID
		}
	case CmdTemplate:
		if cmd.Template == "" {
			return res, nil, invalid(cmd.Op, "template")
		}
		var node *domain.Node
		if node, err = e.templateNode(ctx, cmd.Template); err == nil {
			c, err = e.insert(cmd.At, node)
			if c.changed {
				res.ID = node.ID
			}
		}
	case CmdRemove:
		if cmd.ID == "" {
			return res, nil, invalid(cmd.Op, "id")
		}
		c, err = e.remove(cmd.ID)
	case CmdRemoveSelection:
		c, err = e.removeSelection(domain.NewSelection(cmd.IDs...))
	case CmdDuplicate:
		if cmd.ID == "" {
			return res, nil, invalid(cmd.Op, "id")
		}
		c, err = e.duplicate(cmd.ID)
	case CmdUpdate, CmdResize:
		if cmd.ID == "" {
			return res, nil, invalid(cmd.Op, "id")
		}
		if cmd.Op == CmdUpdate {
			c, err = e.update(cmd.ID, cmd.Patch)
		} else {
			c, err = e.resize(cmd.ID, cmd.Patch)
		}
	case CmdMove:
		if cmd.From == nil || cmd.To == nil {
			return res, nil, invalid(cmd.Op, "from/to")
		}
		c, err = e.move(*cmd.From, *cmd.To)
	case CmdUndo:
		c, err = e.travel(domain.EventUndo, e.history.Undo)
	case CmdRedo:
		c, err = e.travel(domain.EventRedo, e.history.Redo)
	default:
		return res, nil, fmt.Errorf("%w: unknown op %q", domain.ErrInvalidCommand, cmd.Op)
	}
	if err != nil {
		return CommandResult{}, nil, err
	}

	res.Changed = c.changed
	res.Revision = c.revision
	res.Message = c.message
	if !c.changed {
		return res, nil, nil
	}
	diff := domain.Diff(c.before, c.after)
	if diff != nil {
		diff.PageID = e.pageID
		diff.Revision = c.revision
	}
	return res, diff, nil
}

func invalid(op CommandOp, field string) error {
	return fmt.Errorf("%w: %s requires %s", domain.ErrInvalidCommand, op, field)
}

// sanitizeCommand cleans every string a command carries into the document.
func sanitizeCommand(cmd *Command) error {
	var err error
	if cmd.Props, err = sanitize.Props(cmd.Props); err != nil {
		return err
	}
	patch, err := sanitize.Props(cmd.Patch)
	if err != nil {
		return err
	}
	cmd.Patch = patch
	if cmd.Node, err = sanitize.Node(cmd.Node); err != nil {
		return err
	}
	return nil
}
