// internal/workers/audit_enqueuer_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/workers"
	"github.com/ammerola/stockmirror/test/helpers"
	"github.com/ammerola/stockmirror/test/mocks"
)

func TestAuditEnqueuer_Record(t *testing.T) {
	event := domain.NewAuditEvent(domain.OpDelete, domain.StageAttempt,
		domain.InventoryItem{ID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", Name: "Clamp"}, nil)

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockTaskEnqueuer)
		wantErr    bool
	}{
		{
			name: "enqueues_on_audit_queue",
			setupMocks: func(client *mocks.MockTaskEnqueuer) {
				client.EXPECT().
					EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
						assert.Equal(t, workers.TypeAuditRecord, task.Type())

						var got domain.AuditEvent
						require.NoError(t, json.Unmarshal(task.Payload(), &got))
						assert.Equal(t, event.ID, got.ID)
						assert.Equal(t, domain.OpDelete, got.Action)

						var queue, taskID string
						for _, opt := range opts {
							switch opt.Type() {
							case asynq.QueueOpt:
								queue = opt.Value().(string)
							case asynq.TaskIDOpt:
								taskID = opt.Value().(string)
							}
						}
						assert.Equal(t, workers.QueueAudit, queue)
						assert.Equal(t, event.ID.String(), taskID)

						return &asynq.TaskInfo{ID: taskID, Queue: queue}, nil
					})
			},
		},
		{
			name: "duplicate_event_is_not_an_error",
			setupMocks: func(client *mocks.MockTaskEnqueuer) {
				client.EXPECT().
					EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, asynq.ErrTaskIDConflict)
			},
		},
		{
			name: "broker_unavailable",
			setupMocks: func(client *mocks.MockTaskEnqueuer) {
				client.EXPECT().
					EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("dial tcp: connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockTaskEnqueuer(ctrl)
			tt.setupMocks(client)

			sink := workers.NewAuditEnqueuer(client, 5, helpers.TestLogger())
			err := sink.Record(context.Background(), event)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
