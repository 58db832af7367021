package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// State Runtime 生命周期状态
type State int32

const (
	// StateCreated 已创建，尚未启动
	StateCreated State = iota
	// StateRunning 运行中
	StateRunning
	// StateStopped 已停止（终态）
	StateStopped
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RuntimeConfig Runtime 配置
type RuntimeConfig struct {
	// ErrorBufferSize 错误通道缓冲大小
	ErrorBufferSize int
	// Decider 处理函数失败后的监督决策
	Decider Decider
	// Logger 自定义日志器
	Logger *slog.Logger
}

// DefaultRuntimeConfig 默认 Runtime 配置
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		ErrorBufferSize: 100,
		Decider:         ResumingDecider,
		Logger:          nil, // 使用默认 logger
	}
}

// registration Actor 注册记录，注册后不可变
type registration struct {
	name    string
	factory Factory
	topics  []TopicID
}

// delivery 一次（消息, 订阅者）投递
type delivery struct {
	msg        Message
	topic      TopicID
	sender     string
	seq        uint64
	enqueuedAt time.Time
}

// actorCell Actor 单元，包含 Actor 实例及其邮箱
type actorCell struct {
	reg    *registration
	actor  Actor
	routes Routes

	// 以下字段由 Runtime.mu 保护
	queue   []delivery
	stopped bool

	wake   chan struct{}
	stats  *StatsCollector
	logger *slog.Logger
}

// Runtime 单进程 Actor 运行时
// 管理 Actor 注册、主题订阅、消息投递与空闲检测
type Runtime struct {
	name   string
	config *RuntimeConfig
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	order    []string
	cells    map[string]*actorCell
	subs     map[TopicID][]*actorCell
	queued   int
	inFlight int
	// idle 在 queued+inFlight 归零时关闭，变为非零时重建
	idle     chan struct{}
	seq      uint64
	failures []*HandlerError

	ctx    context.Context
	cancel context.CancelCauseFunc
	loops  errgroup.Group
	errors chan *HandlerError
	done   chan struct{}

	startTime   time.Time
	published   atomic.Int64
	delivered   atomic.Int64
	processed   atomic.Int64
	failed      atomic.Int64
	cancelled   atomic.Int64
	deadLetters atomic.Int64
}

// NewRuntime 创建 Runtime
func NewRuntime(name string) *Runtime {
	return NewRuntimeWithConfig(name, DefaultRuntimeConfig())
}

// NewRuntimeWithConfig 使用配置创建 Runtime
func NewRuntimeWithConfig(name string, config *RuntimeConfig) *Runtime {
	if config == nil {
		config = DefaultRuntimeConfig()
	}
	if config.ErrorBufferSize <= 0 {
		config.ErrorBufferSize = DefaultRuntimeConfig().ErrorBufferSize
	}
	if config.Decider == nil {
		config.Decider = ResumingDecider
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancelCause(context.Background())

	idle := make(chan struct{})
	close(idle)

	return &Runtime{
		name:      name,
		config:    config,
		logger:    logger.With("runtime", name),
		state:     StateCreated,
		cells:     make(map[string]*actorCell),
		subs:      make(map[TopicID][]*actorCell),
		idle:      idle,
		ctx:       ctx,
		cancel:    cancel,
		errors:    make(chan *HandlerError, config.ErrorBufferSize),
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
}

// Name 返回 Runtime 名称
func (r *Runtime) Name() string {
	return r.name
}

// ═══════════════════════════════════════════════════════════════════════════
// 注册与生命周期
// ═══════════════════════════════════════════════════════════════════════════

// Register 注册 Actor 类型
//
// 未指定主题时订阅 DefaultTopic。Created 状态下实例在 Start 时创建，
// Running 状态下立即启动邮箱循环并在其中创建实例。
func (r *Runtime) Register(name string, factory Factory, topics ...TopicID) error {
	if name == "" {
		return fmt.Errorf("register: actor name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("register %q: factory cannot be nil", name)
	}

	if len(topics) == 0 {
		topics = []TopicID{DefaultTopic}
	}
	seen := make(map[TopicID]bool, len(topics))
	uniq := make([]TopicID, 0, len(topics))
	for _, t := range topics {
		if !seen[t] {
			seen[t] = true
			uniq = append(uniq, t)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateStopped {
		return &AlreadyStoppedError{Op: "register"}
	}
	if _, exists := r.cells[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	cell := &actorCell{
		reg:    &registration{name: name, factory: factory, topics: uniq},
		wake:   make(chan struct{}, 1),
		stats:  NewStatsCollector(),
		logger: r.logger.With("actor", name),
	}
	r.cells[name] = cell
	r.order = append(r.order, name)
	for _, t := range uniq {
		r.subs[t] = append(r.subs[t], cell)
	}

	if r.state == StateRunning {
		r.startLoop(cell)
	}

	r.logger.Debug("registered actor", "actor", name, "topics", len(uniq))
	return nil
}

// Start 启动 Runtime：Created → Running
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRunning:
		return nil
	case StateStopped:
		return &AlreadyStoppedError{Op: "start"}
	}

	r.state = StateRunning
	r.startTime = time.Now()
	for _, name := range r.order {
		r.startLoop(r.cells[name])
	}

	r.logger.Info("runtime started", "actors", len(r.order))
	return nil
}

// Stop 立即停止 Runtime
//
// 排队中的投递被丢弃，正在执行的处理函数通过取消令牌收到通知，但不会被强制终止。
func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateStopped {
		return
	}
	r.transitionStopped("runtime stopped")
}

// StopWhenIdle 等待队列为空且没有处理函数在执行，然后停止 Runtime
//
// 空闲检查与状态转换在同一把锁内完成，不会与即将发布消息的处理函数竞争。
// 不能在处理函数内部调用。
func (r *Runtime) StopWhenIdle(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.state == StateStopped {
			r.mu.Unlock()
			break
		}
		if r.queued == 0 && r.inFlight == 0 {
			r.transitionStopped("runtime idle")
			r.mu.Unlock()
			break
		}
		idle := r.idle
		r.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transitionStopped 转换到 Stopped，调用者持有 r.mu
func (r *Runtime) transitionStopped(reason string) {
	wasPending := r.queued+r.inFlight > 0

	dropped := 0
	for _, cell := range r.cells {
		dropped += len(cell.queue)
		cell.queue = nil
	}
	r.queued -= dropped
	r.deadLetters.Add(int64(dropped))

	if wasPending && r.queued+r.inFlight == 0 {
		close(r.idle)
	}

	r.state = StateStopped
	r.cancel(&CancelledError{Reason: reason})

	go func() {
		_ = r.loops.Wait()
		close(r.errors)
		close(r.done)
	}()

	r.logger.Info("runtime stopped",
		"reason", reason,
		"dropped", dropped,
		"in_flight", r.inFlight)
}

// ═══════════════════════════════════════════════════════════════════════════
// 发布
// ═══════════════════════════════════════════════════════════════════════════

// Publish 发布消息到主题
//
// 为每个订阅者入队一次投递。同一主题上先发布的消息，
// 每个订阅者都先于后发布的消息观察到。
func (r *Runtime) Publish(msg Message, topic TopicID) error {
	return r.publish(msg, topic, "")
}

func (r *Runtime) publish(msg Message, topic TopicID, sender string) error {
	if msg == nil {
		return fmt.Errorf("publish: message cannot be nil")
	}

	r.mu.Lock()
	if r.state != StateRunning {
		state := r.state
		r.mu.Unlock()
		return &NotRunningError{State: state}
	}

	r.seq++
	now := time.Now()
	targets := 0
	for _, cell := range r.subs[topic] {
		// 不投递回发布者自身
		if cell.stopped || cell.reg.name == sender {
			continue
		}
		cell.queue = append(cell.queue, delivery{
			msg:        msg,
			topic:      topic,
			sender:     sender,
			seq:        r.seq,
			enqueuedAt: now,
		})
		targets++
		wake(cell.wake)
	}
	if targets > 0 {
		if r.queued+r.inFlight == 0 {
			r.idle = make(chan struct{})
		}
		r.queued += targets
	}
	r.mu.Unlock()

	r.published.Add(1)
	r.delivered.Add(int64(targets))
	if targets == 0 {
		r.deadLetters.Add(1)
		r.logger.Debug("dead letter: no subscriber",
			"kind", msg.Kind(), "topic", topic.String(), "sender", sender)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 邮箱循环
// ═══════════════════════════════════════════════════════════════════════════

// startLoop 启动 Actor 邮箱循环，调用者持有 r.mu
func (r *Runtime) startLoop(cell *actorCell) {
	r.loops.Go(func() error {
		r.actorLoop(cell)
		return nil
	})
}

// actorLoop Actor 消息处理循环，同一 Actor 一次只处理一条消息
func (r *Runtime) actorLoop(cell *actorCell) {
	if !r.instantiate(cell) {
		return
	}

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-cell.wake:
		}

		for {
			d, token, ok := r.next(cell)
			if !ok {
				break
			}
			r.process(cell, d, token)
		}

		r.mu.Lock()
		stopped := cell.stopped
		r.mu.Unlock()
		if stopped {
			return
		}
	}
}

// instantiate 调用工厂创建 Actor 实例
func (r *Runtime) instantiate(cell *actorCell) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.report(cell, &HandlerError{
				Actor: cell.reg.name,
				Kind:  "factory",
				Err:   &PanicError{Value: rec, Stack: string(debug.Stack())},
			})
			r.dropCell(cell)
			ok = false
		}
	}()

	a := cell.reg.factory()
	if a == nil {
		r.report(cell, &HandlerError{
			Actor: cell.reg.name,
			Kind:  "factory",
			Err:   errors.New("factory returned nil actor"),
		})
		r.dropCell(cell)
		return false
	}

	routes := make(Routes)
	for kind, h := range a.Routes() {
		routes[kind] = h
	}
	cell.actor = a
	cell.routes = routes
	return true
}

// next 取出下一条投递并登记为执行中
func (r *Runtime) next(cell *actorCell) (delivery, *CancellationToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning || cell.stopped || len(cell.queue) == 0 {
		return delivery{}, nil, false
	}

	d := cell.queue[0]
	cell.queue[0] = delivery{}
	cell.queue = cell.queue[1:]
	r.queued--
	r.inFlight++

	return d, NewCancellationToken(r.ctx), true
}

// process 处理单条投递
func (r *Runtime) process(cell *actorCell, d delivery, token *CancellationToken) {
	cell.stats.RecordReceived()
	startTime := time.Now()

	ctx := &Context{
		Self:      cell.reg.name,
		Sender:    d.sender,
		Topic:     d.topic,
		Token:     token,
		MessageID: d.seq,
		runtime:   r,
		logger:    cell.logger,
	}

	err := r.invoke(cell, ctx, d.msg)
	token.release()
	cell.stats.RecordHandled(time.Since(startTime))
	r.processed.Add(1)

	// 失败必须在释放执行槽位之前上报，保证空闲时 Failures 已完整
	if err != nil {
		r.handleFailure(cell, d, err)
	}

	r.mu.Lock()
	r.inFlight--
	if r.queued+r.inFlight == 0 {
		close(r.idle)
	}
	r.mu.Unlock()
}

// invoke 查找并调用处理函数，panic 被转换为 *PanicError
func (r *Runtime) invoke(cell *actorCell, ctx *Context, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := string(debug.Stack())
			cell.logger.Error("panic in actor",
				"message", msg.Kind(),
				"error", rec,
				"stack", stack)
			err = &PanicError{Value: rec, Stack: stack}
		}
	}()

	h, ok := cell.routes[msg.Kind()]
	if !ok {
		r.deadLetters.Add(1)
		cell.logger.Warn("dead letter: no handler", "kind", msg.Kind())
		return nil
	}
	return h(ctx, msg)
}

// handleFailure 上报失败并应用监督指令
func (r *Runtime) handleFailure(cell *actorCell, d delivery, err error) {
	if IsCancellation(err) {
		r.cancelled.Add(1)
		cell.stats.RecordCancelled()
		cell.logger.Debug("handler cancelled", "kind", d.msg.Kind(), "error", err)
		return
	}

	herr := &HandlerError{
		Actor:     cell.reg.name,
		Kind:      d.msg.Kind(),
		Topic:     d.topic,
		MessageID: d.seq,
		Err:       err,
	}
	r.report(cell, herr)

	directive := r.config.Decider(herr)
	switch directive {
	case DirectiveStopActor:
		r.dropCell(cell)
	case DirectiveStop:
		r.Stop()
	}
	if directive != DirectiveResume {
		cell.logger.Warn("supervisor directive applied", "directive", directive.String())
	}
}

// report 记录失败并非阻塞地发送到错误通道
func (r *Runtime) report(cell *actorCell, herr *HandlerError) {
	r.failed.Add(1)
	cell.stats.RecordError(herr.Err)
	cell.logger.Error("actor handler failed", "kind", herr.Kind, "error", herr.Err)

	r.mu.Lock()
	r.failures = append(r.failures, herr)
	r.mu.Unlock()

	if !TrySend(r.errors, herr) {
		r.logger.Warn("error channel full, failure only kept in Failures()", "actor", herr.Actor)
	}
}

// dropCell 停止向 Actor 投递并丢弃其排队消息
func (r *Runtime) dropCell(cell *actorCell) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cell.stopped {
		return
	}
	cell.stopped = true
	n := len(cell.queue)
	cell.queue = nil
	r.deadLetters.Add(int64(n))

	if n > 0 {
		r.queued -= n
		if r.queued+r.inFlight == 0 {
			close(r.idle)
		}
	}
	wake(cell.wake)
}

// ═══════════════════════════════════════════════════════════════════════════
// 查询
// ═══════════════════════════════════════════════════════════════════════════

// Errors 返回错误通道，Runtime 停止且所有循环退出后关闭
func (r *Runtime) Errors() <-chan *HandlerError {
	return r.errors
}

// Failures 返回所有已上报的失败（副本）
func (r *Runtime) Failures() []*HandlerError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*HandlerError, len(r.failures))
	copy(out, r.failures)
	return out
}

// Done 所有邮箱循环退出后关闭
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

// State 返回当前状态
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsRunning 检查 Runtime 是否运行中
func (r *Runtime) IsRunning() bool {
	return r.State() == StateRunning
}

// Snapshot 返回（排队数, 执行中数）
func (r *Runtime) Snapshot() (queued, inFlight int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queued, r.inFlight
}

// Actors 按注册顺序列出 Actor 名称
func (r *Runtime) Actors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Subscribers 列出订阅了主题的 Actor 名称
func (r *Runtime) Subscribers(topic TopicID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.subs[topic]))
	for _, cell := range r.subs[topic] {
		names = append(names, cell.reg.name)
	}
	return names
}

// ActorStats 获取单个 Actor 的统计信息
func (r *Runtime) ActorStats(name string) (*ActorStats, bool) {
	r.mu.Lock()
	cell, ok := r.cells[name]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return cell.stats.Stats(), true
}

// Stats 获取统计信息
func (r *Runtime) Stats() *RuntimeStats {
	r.mu.Lock()
	total := int64(len(r.cells))
	r.mu.Unlock()

	return &RuntimeStats{
		TotalActors: total,
		Published:   r.published.Load(),
		Delivered:   r.delivered.Load(),
		Processed:   r.processed.Load(),
		Failed:      r.failed.Load(),
		Cancelled:   r.cancelled.Load(),
		DeadLetters: r.deadLetters.Load(),
		StartTime:   r.startTime,
	}
}
