package channel

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/contactsbridge/internal/addressbook/repository"
	"github.com/sjzar/contactsbridge/internal/bridge/permission"
	"github.com/sjzar/contactsbridge/internal/errors"
)

// Store 提供已打开的联系人存储
type Store interface {
	GetRepository() (*repository.Repository, error)
}

type Config interface {
	GetWorkers() int
}

// Channel 方法分发器
// 参数校验与权限检查在调用方协程同步完成，存储访问交给工作协程池
type Channel struct {
	store   Store
	perm    *permission.Manager
	workers int

	mutex  sync.Mutex
	tasks  chan *task
	stopCh chan struct{}
	wg     sync.WaitGroup
}

type task struct {
	ctx   context.Context
	call  *call
	repo  *repository.Repository
	reply chan reply
}

type reply struct {
	result interface{}
	err    error
}

func New(conf Config, store Store, perm *permission.Manager) *Channel {
	workers := conf.GetWorkers()
	if workers <= 0 {
		workers = 1
	}
	return &Channel{
		store:   store,
		perm:    perm,
		workers: workers,
	}
}

// Start 启动工作协程
func (c *Channel) Start() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopCh != nil {
		return fmt.Errorf("channel already started")
	}
	c.tasks = make(chan *task)
	c.stopCh = make(chan struct{})
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(c.tasks, c.stopCh)
	}
	log.Debug().Msgf("channel started with %d workers", c.workers)
	return nil
}

// Stop 停止接收新的调用，并等待正在执行的调用结束
func (c *Channel) Stop() error {
	c.mutex.Lock()
	if c.stopCh == nil {
		c.mutex.Unlock()
		return nil
	}
	close(c.stopCh)
	c.stopCh = nil
	c.tasks = nil
	c.mutex.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Channel) Permission() *permission.Manager {
	return c.perm
}

// Handle 处理一个通道请求
func (c *Channel) Handle(ctx context.Context, req *Request) *Response {
	if req == nil || strings.TrimSpace(req.Method) == "" {
		var id interface{}
		if req != nil {
			id = req.ID
		}
		return NewErrorResponse(id, errors.MissingArgument("method"))
	}
	result, err := c.Invoke(ctx, req.Method, req.Arguments)
	if err != nil {
		return NewErrorResponse(req.ID, err)
	}
	return NewResponse(req.ID, result)
}

// Invoke 调用 method 并等待结果
// 调用一旦分发便会执行完毕，ctx 结束只会让调用方停止等待
func (c *Channel) Invoke(ctx context.Context, method string, arguments interface{}) (interface{}, error) {
	inv, err := parse(method, arguments)
	if err != nil {
		return nil, err
	}

	var repo *repository.Repository
	if inv.store {
		if repo, err = c.store.GetRepository(); err != nil {
			return nil, err
		}
	}

	switch inv.access {
	case accessRead:
		err = c.perm.Check(false)
	case accessWrite:
		err = c.perm.Check(true)
	}
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	tasks, stopCh := c.tasks, c.stopCh
	c.mutex.Unlock()
	if stopCh == nil {
		return nil, errors.NoContext("channel not started")
	}

	t := &task{
		ctx:   context.WithoutCancel(ctx),
		call:  inv,
		repo:  repo,
		reply: make(chan reply, 1),
	}

	select {
	case tasks <- t:
	case <-stopCh:
		return nil, errors.NoContext("channel stopped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-t.reply:
		return r.result, r.err
	case <-ctx.Done():
		log.Debug().Msgf("caller stopped waiting for %s", method)
		return nil, ctx.Err()
	}
}

func (c *Channel) worker(tasks <-chan *task, stopCh <-chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case t := <-tasks:
			t.reply <- c.execute(t)
		}
	}
}

func (c *Channel) execute(t *task) (r reply) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("stack", string(debug.Stack())).Msgf("%s panic: %v", t.call.method, p)
			r = reply{err: t.call.wrap(fmt.Errorf("panic: %v", p))}
		}
		log.Debug().Str("method", t.call.method).Dur("cost", time.Since(start)).Err(r.err).Msg("channel call")
	}()

	result, err := t.call.run(t.ctx, c, t.repo)
	if err != nil {
		return reply{err: t.call.wrap(err)}
	}
	return reply{result: result}
}
