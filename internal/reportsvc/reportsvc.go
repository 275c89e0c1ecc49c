// Package reportsvc optionally serves the most recently completed run's
// report.Summary over gRPC, so a CI pipeline driving a long batch of
// deobfuscation jobs can poll progress instead of shelling out and
// scraping stdout. It reuses exactly the machinery the teacher's
// evaluator/builtins_grpc.go uses to let a Funxy script register an
// arbitrary service at runtime — protoparse to compile an inline schema,
// dynamic.Message to build/read values against it without generated Go
// structs, and a hand-built grpc.ServiceDesc to wire a single reflective
// unary handler into *grpc.Server — except here the schema and the single
// RPC it exposes are fixed rather than scripted.
package reportsvc

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/obfdofus/abcdeob/internal/report"
)

// reportProto is the schema this package's single RPC is described
// against. Kept inline (rather than a .proto file in the tree) since the
// schema never varies and protoparse needs a real file on disk regardless
// of how the text reached it.
const reportProto = `syntax = "proto3";

package abcdeob.report;

message SummaryProto {
  string run_id          = 1;
  string input           = 2;
  string output          = 3;
  int32  classes_total   = 4;
  int32  static_classes  = 5;
  int32  wrapper_classes = 6;
  int32  packet_routes   = 7;
  int32  tribulle_routes = 8;
  int32  classes_renamed = 9;
  int32  matcher_renames = 10;
  repeated string missing  = 11;
  repeated string warnings = 12;
  int32  exit_code = 13;
}

message GetSummaryRequest {}

service ReportService {
  rpc GetSummary(GetSummaryRequest) returns (SummaryProto);
}
`

// Server hosts the ReportService described by reportProto and answers
// GetSummary with whatever Summary was last published via SetSummary (nil
// until the run the caller started it alongside actually finishes a
// phase).
type Server struct {
	grpcServer *grpc.Server
	methodDesc *desc.MethodDescriptor

	mu      sync.RWMutex
	summary *report.Summary
}

// New compiles reportProto and wires its one RPC into a fresh
// *grpc.Server, ready for Serve.
func New() (*Server, error) {
	dir, err := os.MkdirTemp("", "abcdeob-reportsvc")
	if err != nil {
		return nil, fmt.Errorf("reportsvc: schema tempdir: %w", err)
	}
	defer os.RemoveAll(dir)

	schemaPath := filepath.Join(dir, "report.proto")
	if err := os.WriteFile(schemaPath, []byte(reportProto), 0o644); err != nil {
		return nil, fmt.Errorf("reportsvc: writing schema: %w", err)
	}

	parser := protoparse.Parser{ImportPaths: []string{dir}}
	fds, err := parser.ParseFiles("report.proto")
	if err != nil {
		return nil, fmt.Errorf("reportsvc: parsing schema: %w", err)
	}
	fd := fds[0]

	sd := fd.FindService("abcdeob.report.ReportService")
	if sd == nil {
		return nil, fmt.Errorf("reportsvc: ReportService not found in compiled schema")
	}
	methods := sd.GetMethods()
	if len(methods) != 1 {
		return nil, fmt.Errorf("reportsvc: expected exactly one method, got %d", len(methods))
	}

	s := &Server{methodDesc: methods[0]}
	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(&grpc.ServiceDesc{
		ServiceName: sd.GetFullyQualifiedName(),
		HandlerType: (*any)(nil),
		Metadata:    sd.GetFile().GetName(),
		Methods: []grpc.MethodDesc{{
			MethodName: s.methodDesc.GetName(),
			Handler:    s.handleGetSummary,
		}},
	}, s)

	return s, nil
}

// SetSummary publishes sum as the response every subsequent GetSummary
// call sees, until the next SetSummary call replaces it. Safe to call from
// the goroutine driving orchestrator.Process while Serve runs on another.
func (s *Server) SetSummary(sum *report.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = sum
}

// Serve blocks accepting connections on addr until Stop is called.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("reportsvc: listen %s: %w", addr, err)
	}
	return s.grpcServer.Serve(lis)
}

// Stop gracefully shuts the server down, letting any in-flight GetSummary
// call finish.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) handleGetSummary(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	h := srv.(*Server)

	req := dynamic.NewMessage(h.methodDesc.GetInputType())
	if err := dec(req); err != nil {
		return nil, fmt.Errorf("reportsvc: decoding request: %w", err)
	}

	h.mu.RLock()
	sum := h.summary
	h.mu.RUnlock()

	resp := dynamic.NewMessage(h.methodDesc.GetOutputType())
	if sum == nil {
		return resp, nil
	}
	if err := populateSummary(resp, sum); err != nil {
		return nil, fmt.Errorf("reportsvc: building response: %w", err)
	}
	return resp, nil
}

// populateSummary copies every field of sum into msg by name, the same
// descriptor-driven SetField translation objectToDynamicMessage performs
// in the teacher's grpc builtin — here specialized to one known message
// shape instead of a generic object graph.
func populateSummary(msg *dynamic.Message, sum *report.Summary) error {
	md := msg.GetMessageDescriptor()

	fields := map[string]any{
		"run_id":          sum.RunID.String(),
		"input":           sum.Input,
		"output":          sum.Output,
		"classes_total":   int32(sum.ClassesTotal),
		"static_classes":  int32(sum.StaticClasses),
		"wrapper_classes": int32(sum.WrapperClasses),
		"packet_routes":   int32(sum.PacketRoutes),
		"tribulle_routes": int32(sum.TribulleRoutes),
		"classes_renamed": int32(sum.ClassesRenamed),
		"matcher_renames": int32(sum.MatcherRenames),
		"exit_code":       int32(sum.ExitCode),
	}
	for name, val := range fields {
		fd := md.FindFieldByName(name)
		if fd == nil {
			return fmt.Errorf("field %s: not present in compiled schema", name)
		}
		if err := msg.SetField(fd, val); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}

	if fd := md.FindFieldByName("missing"); fd != nil && len(sum.Missing) > 0 {
		missing := make([]any, len(sum.Missing))
		for i, m := range sum.Missing {
			missing[i] = m
		}
		if err := msg.SetField(fd, missing); err != nil {
			return fmt.Errorf("field missing: %w", err)
		}
	}
	if fd := md.FindFieldByName("warnings"); fd != nil && len(sum.Warnings) > 0 {
		warnings := make([]any, len(sum.Warnings))
		for i, w := range sum.Warnings {
			warnings[i] = w
		}
		if err := msg.SetField(fd, warnings); err != nil {
			return fmt.Errorf("field warnings: %w", err)
		}
	}
	return nil
}
