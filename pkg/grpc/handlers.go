package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

// toStruct converts a JSON-serializable payload into a Struct with the same
// shape the SSE stream sends.
func toStruct(payload any) (*structpb.Struct, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

func (s *GlucoseServer) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	current, err := s.Monitor.Athlete.CurrentStatus(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	out, err := toStruct(current)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

func (s *GlucoseServer) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	logger := common.GetLoggerWith(
		common.LoggerNameGrpcServer,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryStream),
	)

	ctx := stream.Context()
	user := userFromContext(ctx)
	if user == nil || user.Role != models.RoleParent {
		return status.Error(codes.Unauthenticated, "parent credential required")
	}

	sub, err := s.Monitor.Bus.Subscribe(events.TopicDexcomDataUpdated)
	if err != nil {
		if errors.Is(err, events.ErrTooManySubscribers) {
			return status.Error(codes.Unavailable, "too many open streams")
		}
		return status.Error(codes.Internal, "internal server error")
	}
	defer sub.Unsubscribe()

	logger.Info("Watch opened", zap.Uint("userId", user.ID), zap.String("subscription", sub.ID))
	defer logger.Info("Watch closed", zap.Uint("userId", user.ID), zap.String("subscription", sub.ID))

	connected, _ := structpb.NewStruct(map[string]any{"type": "connected"})
	if err := stream.Send(connected); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.baseDone():
			return status.Error(codes.Unavailable, "server shutting down")

		case ev, ok := <-sub.C():
			if !ok {
				logger.Warn("Watch subscriber dropped", zap.Uint("userId", user.ID), zap.Bool("overflow", sub.Dropped()))
				return status.Error(codes.Unavailable, "subscriber dropped, reconnect")
			}
			msg, err := toStruct(ev.Payload)
			if err != nil {
				logger.Error("Failed to encode event", zap.String("topic", ev.Topic), zap.Error(err))
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}
