package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"comments-service/pkg/logger"
)

// KafkaConfig 配置
type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// Producer 生产者
type Producer struct {
	asyncProducer sarama.AsyncProducer
	done          chan struct{}
	logger        logger.Logger
}

// ConsumerHandler 消费处理接口
type ConsumerHandler interface {
	HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer 消费者
type Consumer struct {
	group     sarama.ConsumerGroup
	topics    []string
	ready     chan bool
	readyOnce sync.Once
	Handler   ConsumerHandler
	logger    logger.Logger
}

// InitProducer 初始化生产者
func InitProducer(brokers []string, log logger.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Partitioner = sarama.NewHashPartitioner

	asyncProducer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return newProducer(asyncProducer, log), nil
}

func newProducer(asyncProducer sarama.AsyncProducer, log logger.Logger) *Producer {
	p := &Producer{
		asyncProducer: asyncProducer,
		done:          make(chan struct{}),
		logger:        log,
	}

	// 投递结果只通过日志暴露，发送方不等待确认
	go func() {
		defer close(p.done)
		for {
			select {
			case _, ok := <-asyncProducer.Successes():
				if !ok {
					return
				}
			case err, ok := <-asyncProducer.Errors():
				if !ok {
					return
				}
				p.logger.Error(context.Background(), "Failed to deliver Kafka message",
					logger.F("topic", err.Msg.Topic),
					logger.F("error", err.Err.Error()))
			}
		}
	}()

	return p
}

// SendMessage 发送消息
func (p *Producer) SendMessage(topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	p.asyncProducer.Input() <- msg
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	err := p.asyncProducer.Close()
	<-p.done
	return err
}

// InitConsumer 初始化消费者
func InitConsumer(cfg KafkaConfig, handler ConsumerHandler, log logger.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:   group,
		topics:  cfg.Topics,
		ready:   make(chan bool),
		Handler: handler,
		logger:  log,
	}, nil
}

// StartConsuming 启动消费
func (c *Consumer) StartConsuming(ctx context.Context) error {
	go func() {
		for {
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				c.logger.Error(ctx, "Kafka consume error",
					logger.F("error", err.Error()))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	<-c.ready
	return nil
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	return c.group.Close()
}

// Setup sarama.ConsumerGroupHandler
// 每次再均衡都会重新走一遍Setup，ready只在首个会话关闭一次
func (c *Consumer) Setup(_ sarama.ConsumerGroupSession) error {
	c.readyOnce.Do(func() {
		close(c.ready)
	})
	return nil
}

// Cleanup sarama.ConsumerGroupHandler
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim 消费消息
func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.Handler.HandleMessage(sess.Context(), msg); err == nil {
			sess.MarkMessage(msg, "")
		} else {
			c.logger.Error(sess.Context(), "Kafka handler failed",
				logger.F("topic", msg.Topic),
				logger.F("offset", msg.Offset),
				logger.F("error", err.Error()))
		}
	}
	return nil
}

// Validate 校验配置
func (cfg KafkaConfig) Validate() error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("kafka: at least one broker is required")
	}
	if len(cfg.Topics) == 0 {
		return fmt.Errorf("kafka: at least one topic is required")
	}
	return nil
}
