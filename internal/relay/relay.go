package relay

import (
	"sync"

	"github.com/Team-Chatoy/chatoy-server/internal/metrics"
	"github.com/Team-Chatoy/chatoy-server/internal/msg"
)

// Relay 是进程级广播总线：所有连接向它发布消息，所有连接的写协程
// 从它订阅。发布端持锁串行，全局投递顺序即全局发布顺序。
type Relay struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
	cap  int
}

// Subscription 是一路订阅，C 上只会收到订阅之后发布的消息，不回放历史。
type Subscription struct {
	C     <-chan msg.Message
	ch    chan msg.Message
	relay *Relay
	once  sync.Once
}

func New(queueCap int) *Relay {
	if queueCap <= 0 {
		queueCap = 256
	}
	return &Relay{subs: make(map[*Subscription]struct{}), cap: queueCap}
}

func (r *Relay) Subscribe() *Subscription {
	s := &Subscription{ch: make(chan msg.Message, r.cap), relay: r}
	s.C = s.ch
	r.mu.Lock()
	r.subs[s] = struct{}{}
	r.mu.Unlock()
	return s
}

// Publish 向每个订阅者的队列投递一条消息，对发布方永不阻塞。
// 某个订阅者队列满时淘汰其最旧的一条再入队，慢消费者只丢自己的消息。
// 没有订阅者时发布是空操作。
func (r *Relay) Publish(m msg.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.subs {
		select {
		case s.ch <- m:
		default:
			select {
			case <-s.ch:
				metrics.RelayDroppedTotal.Inc()
			default:
			}
			select {
			case s.ch <- m:
			default:
			}
		}
	}
}

// Close 注销订阅并关闭通道，可安全重复调用。
// 注销在锁内完成，之后不会再有发布方持有该通道。
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.relay.mu.Lock()
		delete(s.relay.subs, s)
		s.relay.mu.Unlock()
		close(s.ch)
	})
}
