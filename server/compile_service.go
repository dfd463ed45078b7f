package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/garnet/compiler"
	"github.com/chazu/garnet/compiler/astfile"
	"github.com/chazu/garnet/compiler/hash"
	"github.com/chazu/garnet/vm/dist"
)

// Procedure paths of the compile service.
const (
	CompileServiceName      = "garnet.v1.CompileService"
	CompileProcedure        = "/" + CompileServiceName + "/Compile"
	EvaluateProcedure       = "/" + CompileServiceName + "/Evaluate"
	DumpProcedure           = "/" + CompileServiceName + "/Dump"
	CreateSessionProcedure  = "/" + CompileServiceName + "/CreateSession"
	DestroySessionProcedure = "/" + CompileServiceName + "/DestroySession"
)

// CompileService implements the compile procedures. Every compile runs on
// the worker goroutine.
type CompileService struct {
	worker   *CompileWorker
	sessions *SessionStore
	cache    *UnitCache
}

// NewCompileService creates a CompileService.
func NewCompileService(worker *CompileWorker, sessions *SessionStore, cache *UnitCache) *CompileService {
	return &CompileService{
		worker:   worker,
		sessions: sessions,
		cache:    cache,
	}
}

// decodeSource decodes the source field of a request as an AST document.
func decodeSource(msg *structpb.Struct) (*compiler.Container, error) {
	source, err := stringField(msg, "source")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}
	u, err := astfile.Parse([]byte(source))
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return u, nil
}

// compileError maps a failed compile to a connect error.
func compileError(err error) error {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// Compile lowers a document and returns its disassembly. The optional mode
// field overrides the document's container kind.
func (s *CompileService) Compile(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	u, err := decodeSource(req.Msg)
	if err != nil {
		return nil, err
	}
	mode, err := stringField(req.Msg, "mode")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if mode != "" {
		kind, ok := compiler.ParseContainerKind(mode)
		if !ok {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown mode %q", mode))
		}
		u.Kind = kind
	}
	if file, err := stringField(req.Msg, "file"); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	} else if file != "" {
		u.File = file
	}

	result, err := s.worker.Do(func() (interface{}, error) {
		return compiler.Compile(u)
	})
	if err != nil {
		log.Infof("compile failed: %s", err)
		return nil, compileError(err)
	}
	res := result.(*compiler.Result)

	digest, err := dist.Digest(res.Code)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"name":      res.Code.Name,
		"file":      res.Code.File,
		"listing":   res.Code.Listing(),
		"dump":      compiler.Dump(u).String(),
		"arity":     res.Code.Arity,
		"locals":    list(res.Code.LocalNames),
		"units":     list(dist.UnitNames(res.Code)),
		"cacheable": res.Cacheable,
		"digest":    hex.EncodeToString(digest[:]),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	log.Debugf("compiled %s", res.Code.Name)
	return connect.NewResponse(out), nil
}

// evaluation is the outcome of one Evaluate call on the worker.
type evaluation struct {
	unit       *cachedUnit
	evalLocals []string
}

// Evaluate compiles a document as an evaluation unit against a session's
// runtime scope chain. Without a session_id a new session is created.
// Cacheable units are served from the unit cache when the same source was
// compiled against an equivalent chain.
func (s *CompileService) Evaluate(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	u, err := decodeSource(req.Msg)
	if err != nil {
		return nil, err
	}
	u.Kind = compiler.EvalContainer

	id, err := stringField(req.Msg, "session_id")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	var session *Session
	if id == "" {
		session = s.sessions.Create("", nil)
	} else {
		var ok bool
		if session, ok = s.sessions.Get(id); !ok {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
		}
	}

	result, err := s.worker.Do(func() (interface{}, error) {
		return s.evaluate(session, u)
	})
	if err != nil {
		log.Infof("evaluation in session %s failed: %s", session.ID, err)
		return nil, compileError(err)
	}
	ev := result.(*evaluation)

	out, err := structpb.NewStruct(map[string]interface{}{
		"session_id":  session.ID,
		"name":        ev.unit.Code.Name,
		"listing":     ev.unit.Code.Listing(),
		"eval_locals": list(ev.evalLocals),
		"cached":      ev.unit.Source != "",
		"cache":       ev.unit.Source,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// evaluate runs on the worker goroutine.
func (s *CompileService) evaluate(session *Session, u *compiler.Container) (*evaluation, error) {
	var key [32]byte
	cacheable := s.cache != nil && u.ShouldCache()
	if cacheable {
		var err error
		if key, err = hash.Key(u, session.Frame); err != nil {
			return nil, err
		}
		if unit, ok := s.cache.Lookup(key); ok {
			s.define(session, unit.EvalLocals)
			return &evaluation{unit: unit, evalLocals: unit.EvalLocals}, nil
		}
	}

	res, err := compiler.CompileEval(u, session.Frame)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.Put(key, u.Kind.String(), res.Code, res.EvalLocals)
	}
	s.define(session, res.EvalLocals)
	return &evaluation{
		unit:       &cachedUnit{Code: res.Code},
		evalLocals: res.EvalLocals,
	}, nil
}

func (s *CompileService) define(session *Session, names []string) {
	for _, name := range names {
		session.Frame.DefineEvalLocal(name)
	}
	session.Evaluations++
}

// Dump returns the s-expression form of a document.
func (s *CompileService) Dump(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	u, err := decodeSource(req.Msg)
	if err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"dump": compiler.Dump(u).String(),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// CreateSession opens an evaluation session. The optional locals field
// names the slots of an enclosing frame the session can see.
func (s *CompileService) CreateSession(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	name, err := stringField(req.Msg, "name")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	locals, err := stringsField(req.Msg, "locals")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	session := s.sessions.Create(name, locals)
	log.Infof("created session %s", session.ID)

	out, err := structpb.NewStruct(map[string]interface{}{
		"session_id": session.ID,
		"name":       session.Name,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// DestroySession removes an evaluation session.
func (s *CompileService) DestroySession(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	id, err := stringField(req.Msg, "session_id")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session_id is required"))
	}
	if !s.sessions.Destroy(id) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
	}
	log.Infof("destroyed session %s", id)

	out, err := structpb.NewStruct(map[string]interface{}{"destroyed": true})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}
