package core

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shy-share/rocketmq-connect/internal/adapters/codec"
	"github.com/shy-share/rocketmq-connect/internal/adapters/memory"
	"github.com/shy-share/rocketmq-connect/internal/domain"
	"github.com/shy-share/rocketmq-connect/internal/ports"
	"github.com/shy-share/rocketmq-connect/internal/xjson"
)

type stubConnector struct {
	kind ports.ConnectorKind
}

func (s *stubConnector) Kind() ports.ConnectorKind {
	return s.kind
}

func (s *stubConnector) TaskConfigs(config map[string]string, maxTasks int) []map[string]string {
	out := make([]map[string]string, maxTasks)
	for i := range out {
		out[i] = config
	}
	return out
}

type stubPlugin struct {
	kinds map[string]ports.ConnectorKind
}

func (s *stubPlugin) Resolve(className string) (ports.Connector, error) {
	kind, ok := s.kinds[className]
	if !ok {
		return nil, fmt.Errorf("class [%s]: %w", className, domain.ErrClassNotFound)
	}
	return &stubConnector{kind: kind}, nil
}

type recordedSend struct {
	key     string
	payload []byte
}

type captureSynchronizer struct {
	sends []recordedSend
	err   error
}

func (s *captureSynchronizer) Send(key string, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	s.sends = append(s.sends, recordedSend{key: key, payload: payload})
	return nil
}

type countingListener struct {
	updates int
}

func (l *countingListener) OnConfigUpdate() {
	l.updates++
}

type fixture struct {
	coordinator  *Coordinator
	synchronizer *captureSynchronizer
	listener     *countingListener
	connectors   *memory.ConnectorStore
	tasks        *memory.TaskStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := domain.DefaultCoordinatorConfig()
	logger := slog.Default()

	f := &fixture{
		synchronizer: &captureSynchronizer{},
		listener:     &countingListener{},
		connectors:   memory.NewConnectorStore(logger),
		tasks:        memory.NewTaskStore(logger),
	}
	plugin := &stubPlugin{kinds: map[string]ports.ConnectorKind{
		"FooSource": ports.ConnectorKindSource,
		"BarSink":   ports.ConnectorKindSink,
	}}

	f.coordinator = NewCoordinator(cfg, f.connectors, f.tasks, plugin, codec.NewJSONConverter(), f.synchronizer, logger)
	f.coordinator.RegisterListener(f.listener)
	require.NoError(t, f.coordinator.Start())
	return f
}

func sourceConfig(taskMax string) *domain.ConnKeyValue {
	return domain.NewConnKeyValue(map[string]string{
		domain.KeyConnectorClass: "FooSource",
		domain.KeyTaskMax:        taskMax,
		domain.KeySourceTopic:    "topic-a",
	})
}

func sinkConfig() *domain.ConnKeyValue {
	return domain.NewConnKeyValue(map[string]string{
		domain.KeyConnectorClass: "BarSink",
		domain.KeyTaskMax:        "1",
		domain.KeySinkTopics:     "topic-a,topic-b",
	})
}

func TestPutConnectorConfig(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("2")))

	configs := f.coordinator.GetConnectorConfigs()
	require.Contains(t, configs, "conn1")

	stored := configs["conn1"]
	assert.Equal(t, domain.TargetStateStarted, stored.TargetState)
	assert.Positive(t, stored.Epoch)
	assert.Equal(t, "FooSource", stored.Properties[domain.KeyConnectorClass])

	tasks := f.coordinator.GetTaskConfigs()
	require.Contains(t, tasks, "conn1")
	require.Len(t, tasks["conn1"], 2)

	first := tasks["conn1"][0]
	assert.Equal(t, "0", first.Properties[domain.KeyTaskID])
	assert.Equal(t, "conn1", first.Properties[domain.KeyConnectorName])
	assert.Equal(t, stored.Epoch, first.Epoch)
	assert.Equal(t, "1", tasks["conn1"][1].Properties[domain.KeyTaskID])

	assert.Equal(t, 1, f.listener.updates)
}

func TestPutMissingRequiredKey(t *testing.T) {
	f := newFixture(t)

	config := domain.NewConnKeyValue(map[string]string{
		domain.KeyTaskMax: "1",
	})

	err := f.coordinator.PutConnectorConfig("conn1", config)
	require.Error(t, err)
	assert.True(t, domain.IsConfigIncomplete(err))
	assert.Empty(t, f.coordinator.GetConnectorConfigs())
	assert.Zero(t, f.listener.updates)
}

func TestPutDuplicateConfig(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("2")))
	storedEpoch := f.coordinator.GetConnectorConfigs()["conn1"].Epoch

	err := f.coordinator.PutConnectorConfig("conn1", sourceConfig("2"))
	require.Error(t, err)
	assert.True(t, domain.IsConfigDuplicate(err))
	assert.Equal(t, storedEpoch, f.coordinator.GetConnectorConfigs()["conn1"].Epoch)
	assert.Equal(t, 1, f.listener.updates)
}

func TestPutUpdatedConfigBumpsEpoch(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("1")))
	first := f.coordinator.GetConnectorConfigs()["conn1"].Epoch

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("3")))
	second := f.coordinator.GetConnectorConfigs()["conn1"].Epoch

	assert.Greater(t, second, first)
	assert.Len(t, f.coordinator.GetTaskConfigs()["conn1"], 3)
}

func TestPutUnknownClass(t *testing.T) {
	f := newFixture(t)

	config := domain.NewConnKeyValue(map[string]string{
		domain.KeyConnectorClass: "NoSuchClass",
		domain.KeyTaskMax:        "1",
	})

	err := f.coordinator.PutConnectorConfig("conn1", config)
	assert.ErrorIs(t, err, domain.ErrClassNotFound)
	assert.Empty(t, f.coordinator.GetConnectorConfigs())
}

func TestKindValidation(t *testing.T) {
	f := newFixture(t)

	t.Run("source with sink topics", func(t *testing.T) {
		config := sourceConfig("1")
		config.Properties[domain.KeySinkTopics] = "topic-x"

		err := f.coordinator.PutConnectorConfig("conn1", config)
		assert.True(t, domain.IsConfigInvalid(err))
	})

	t.Run("source without source topic", func(t *testing.T) {
		config := sourceConfig("1")
		delete(config.Properties, domain.KeySourceTopic)

		err := f.coordinator.PutConnectorConfig("conn1", config)
		assert.True(t, domain.IsConfigIncomplete(err))
	})

	t.Run("sink with source topic", func(t *testing.T) {
		config := sinkConfig()
		config.Properties[domain.KeySourceTopic] = "topic-x"

		err := f.coordinator.PutConnectorConfig("conn2", config)
		assert.True(t, domain.IsConfigInvalid(err))
	})

	t.Run("valid sink", func(t *testing.T) {
		assert.NoError(t, f.coordinator.PutConnectorConfig("conn2", sinkConfig()))
	})
}

func TestPauseAndResume(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("2")))
	epoch0 := f.coordinator.GetConnectorConfigs()["conn1"].Epoch

	require.NoError(t, f.coordinator.PauseConnector("conn1"))
	paused := f.coordinator.GetConnectorConfigs()["conn1"]
	assert.Equal(t, domain.TargetStatePaused, paused.TargetState)
	assert.Greater(t, paused.Epoch, epoch0)

	require.NoError(t, f.coordinator.ResumeConnector("conn1"))
	resumed := f.coordinator.GetConnectorConfigs()["conn1"]
	assert.Equal(t, domain.TargetStateStarted, resumed.TargetState)
	assert.Greater(t, resumed.Epoch, paused.Epoch)

	// pause/resume leave the derived task records alone
	assert.Len(t, f.coordinator.GetTaskConfigs()["conn1"], 2)
	assert.Equal(t, epoch0, f.coordinator.GetTaskConfigs()["conn1"][0].Epoch)

	assert.Equal(t, 3, f.listener.updates)
}

func TestPauseAlreadyPausedRestampsEpoch(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("1")))
	require.NoError(t, f.coordinator.PauseConnector("conn1"))
	first := f.coordinator.GetConnectorConfigs()["conn1"].Epoch

	require.NoError(t, f.coordinator.PauseConnector("conn1"))
	second := f.coordinator.GetConnectorConfigs()["conn1"].Epoch

	assert.Greater(t, second, first)
	assert.Equal(t, domain.TargetStatePaused, f.coordinator.GetConnectorConfigs()["conn1"].TargetState)
}

func TestPauseMissingConnector(t *testing.T) {
	f := newFixture(t)

	err := f.coordinator.PauseConnector("ghost")
	assert.ErrorIs(t, err, domain.ErrConnectorNotFound)

	err = f.coordinator.ResumeConnector("ghost")
	assert.ErrorIs(t, err, domain.ErrConnectorNotFound)
}

func TestDeleteRemovesBothRecords(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("2")))
	updatesBefore := f.listener.updates

	f.coordinator.DeleteConnectorConfig("conn1")

	assert.NotContains(t, f.coordinator.GetConnectorConfigs(), "conn1")
	assert.NotContains(t, f.coordinator.GetTaskConfigs(), "conn1")
	assert.Equal(t, updatesBefore+1, f.listener.updates)
}

func TestDeleteAbsentConnectorIsNoOp(t *testing.T) {
	f := newFixture(t)

	f.coordinator.DeleteConnectorConfig("ghost")

	assert.Zero(t, f.listener.updates)
}

func TestRestartConnector(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("1")))
	storedEpoch := f.coordinator.GetConnectorConfigs()["conn1"].Epoch
	updatesBefore := f.listener.updates

	require.NoError(t, f.coordinator.RestartConnector("conn1"))

	require.Len(t, f.synchronizer.sends, 1)
	send := f.synchronizer.sends[0]
	assert.Equal(t, "restart-conn1", send.key)

	var signal domain.RestartSignal
	require.NoError(t, xjson.Unmarshal(send.payload, &signal))
	assert.GreaterOrEqual(t, signal.Epoch, storedEpoch)

	// restart neither mutates state nor fires the listener
	assert.Equal(t, storedEpoch, f.coordinator.GetConnectorConfigs()["conn1"].Epoch)
	assert.Equal(t, updatesBefore, f.listener.updates)
}

func TestRestartConnectorMissing(t *testing.T) {
	f := newFixture(t)

	err := f.coordinator.RestartConnector("ghost")
	assert.ErrorIs(t, err, domain.ErrConnectorNotFound)
	assert.Empty(t, f.synchronizer.sends)
}

func TestRestartTask(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("2")))
	storedEpoch := f.coordinator.GetConnectorConfigs()["conn1"].Epoch

	require.NoError(t, f.coordinator.RestartTask("conn1", 0))

	require.Len(t, f.synchronizer.sends, 1)
	send := f.synchronizer.sends[0]
	assert.Equal(t, "restart-task-conn1-0", send.key)

	var signal domain.RestartSignal
	require.NoError(t, xjson.Unmarshal(send.payload, &signal))
	assert.GreaterOrEqual(t, signal.Epoch, storedEpoch)
}

func TestRestartTaskDistinguishesPreconditions(t *testing.T) {
	cfg := domain.DefaultCoordinatorConfig()
	connectors := memory.NewConnectorStore(nil)
	tasks := memory.NewTaskStore(nil)
	plugin := &stubPlugin{kinds: map[string]ports.ConnectorKind{"FooSource": ports.ConnectorKindSource}}
	synchronizer := &captureSynchronizer{}

	coordinator := NewCoordinator(cfg, connectors, tasks, plugin, codec.NewJSONConverter(), synchronizer, nil)

	err := coordinator.RestartTask("ghost", 0)
	assert.ErrorIs(t, err, domain.ErrConnectorNotFound)

	// connector present, no recompute yet: task record set absent
	connectors.Put("conn1", sourceConfig("1"))
	err = coordinator.RestartTask("conn1", 0)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.NotErrorIs(t, err, domain.ErrConnectorNotFound)
	assert.Empty(t, synchronizer.sends)
}

func TestRestartTransportFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("1")))

	f.synchronizer.err = errors.New("broker unavailable")

	err := f.coordinator.RestartConnector("conn1")
	require.Error(t, err)
	assert.True(t, domain.IsTransportFailure(err))

	// local state is untouched by the failed broadcast
	assert.Contains(t, f.coordinator.GetConnectorConfigs(), "conn1")
}

func TestRecomputeTaskConfigs(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("2")))
	updatesBefore := f.listener.updates

	require.NoError(t, f.coordinator.RecomputeTaskConfigs("conn1"))

	assert.Len(t, f.coordinator.GetTaskConfigs()["conn1"], 2)
	assert.Equal(t, updatesBefore+1, f.listener.updates)

	err := f.coordinator.RecomputeTaskConfigs("ghost")
	assert.ErrorIs(t, err, domain.ErrConnectorNotFound)
}

func TestSnapshotsAreDetached(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("1")))

	snapshot := f.coordinator.GetConnectorConfigs()
	snapshot["conn1"].Properties[domain.KeyConnectorClass] = "mutated"
	delete(snapshot, "conn1")

	fresh := f.coordinator.GetConnectorConfigs()
	require.Contains(t, fresh, "conn1")
	assert.Equal(t, "FooSource", fresh["conn1"].Properties[domain.KeyConnectorClass])

	taskSnapshot := f.coordinator.GetTaskConfigs()
	taskSnapshot["conn1"][0].Properties[domain.KeyTaskID] = "99"
	assert.Equal(t, "0", f.coordinator.GetTaskConfigs()["conn1"][0].Properties[domain.KeyTaskID])
}

func TestRegisterListenerOverwrites(t *testing.T) {
	f := newFixture(t)

	replacement := &countingListener{}
	f.coordinator.RegisterListener(replacement)

	require.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("1")))

	assert.Zero(t, f.listener.updates)
	assert.Equal(t, 1, replacement.updates)
}

func TestNoListenerIsSilentNoOp(t *testing.T) {
	f := newFixture(t)
	f.coordinator.RegisterListener(nil)

	assert.NoError(t, f.coordinator.PutConnectorConfig("conn1", sourceConfig("1")))
}
