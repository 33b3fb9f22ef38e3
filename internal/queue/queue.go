package queue

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/garyburd/redigo/redis"
	log "github.com/sirupsen/logrus"
)

const (
	QueueKey     = "predictme"
	ResultPrefix = "predict"

	// results are only interesting right after the upload
	ResultTTL = time.Hour
)

var ErrNotFound = errors.New("no result available")

func NewPool(address string, maxConnections int) *redis.Pool {
	return redis.NewPool(func() (redis.Conn, error) {
		c, err := redis.Dial("tcp", address)

		if err != nil {
			return nil, err
		}

		return c, err
	}, maxConnections)
}

type RedisQueue struct {
	pool *redis.Pool
}

func NewRedisQueue(pool *redis.Pool) *RedisQueue {
	return &RedisQueue{pool: pool}
}

func (q *RedisQueue) Enqueue(req datastructures.PredictionRequest) error {
	serialized, err := json.Marshal(req)
	if err != nil {
		return err
	}

	conn := q.pool.Get()
	defer conn.Close()

	_, err = conn.Do("RPUSH", QueueKey, serialized)
	return err
}

// Pop takes the oldest request off the queue. ErrNotFound means the queue is
// empty.
func (q *RedisQueue) Pop() (datastructures.PredictionRequest, error) {
	var req datastructures.PredictionRequest

	conn := q.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("LPOP", QueueKey))
	if err == redis.ErrNil {
		return req, ErrNotFound
	}
	if err != nil {
		return req, err
	}

	if err := json.Unmarshal(data, &req); err != nil {
		log.Debug("[Queue] Couldn't unmarshal: ", err.Error())
		return req, err
	}
	return req, nil
}

func (q *RedisQueue) StoreResult(res datastructures.PredictionResult) error {
	serialized, err := json.Marshal(res)
	if err != nil {
		return err
	}

	conn := q.pool.Get()
	defer conn.Close()

	_, err = conn.Do("SETEX", ResultPrefix+res.Uuid, int(ResultTTL.Seconds()), serialized)
	return err
}

// Result returns ErrNotFound while the request is still pending, or when the
// uuid is unknown or expired.
func (q *RedisQueue) Result(uuid string) (datastructures.PredictionResult, error) {
	var res datastructures.PredictionResult

	conn := q.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", ResultPrefix+uuid))
	if err == redis.ErrNil {
		return res, ErrNotFound
	}
	if err != nil {
		return res, err
	}

	err = json.Unmarshal(data, &res)
	return res, err
}

func (q *RedisQueue) Ping() error {
	conn := q.pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return err
}
