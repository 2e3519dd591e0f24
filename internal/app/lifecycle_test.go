package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/restful-oms/internal/catalog"
	"github.com/vladislavdragonenkov/restful-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/restful-oms/internal/storage/memory"
)

// LifecycleTestSuite гоняет пользователя и заказ через собранное приложение.
type LifecycleTestSuite struct {
	suite.Suite
	app    *application
	server *httptest.Server
}

func (s *LifecycleTestSuite) SetupTest() {
	app, err := newApplication(context.Background(), testConfig(), testLogger())
	s.Require().NoError(err)
	s.app = app
	s.server = httptest.NewServer(app.api)
}

func (s *LifecycleTestSuite) TearDownTest() {
	s.server.Close()
	s.app.close()
}

func (s *LifecycleTestSuite) call(method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	s.Require().NoError(err)
	return resp, buf.Bytes()
}

func (s *LifecycleTestSuite) createUser(email, key string) int64 {
	headers := map[string]string{}
	if key != "" {
		headers["Idempotency-Key"] = key
	}
	resp, body := s.call(http.MethodPost, "/oms/user", map[string]any{
		"name": "Bob", "address": "2 Side St", "phone": 79990001122, "email": email,
	}, headers)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))

	var created struct {
		UID int64 `json:"uid"`
	}
	s.Require().NoError(json.Unmarshal(body, &created))
	return created.UID
}

func (s *LifecycleTestSuite) firstProductID() int64 {
	resp, body := s.call(http.MethodGet, "/oms/products", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var products []struct {
		ID int64 `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(body, &products))
	s.Require().Len(products, len(catalog.Demo))
	return products[0].ID
}

func (s *LifecycleTestSuite) TestUserAndOrderLifecycle() {
	uid := s.createUser("bob@example.com", "")
	pid := s.firstProductID()

	// 1. Создаём заказ и ищем его по дате
	resp, body := s.call(http.MethodPost, "/oms/order", map[string]any{
		"userId": uid, "productId": []int64{pid},
	}, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))

	var placed struct {
		OID       int64  `json:"oid"`
		OrderDate string `json:"orderDate"`
	}
	s.Require().NoError(json.Unmarshal(body, &placed))

	resp, body = s.call(http.MethodGet, "/oms/order?orderDate="+url.QueryEscape(placed.OrderDate), nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), fmt.Sprintf(`"oid":%d`, placed.OID))

	// 2. Обновляем пользователя
	resp, body = s.call(http.MethodPut, fmt.Sprintf("/oms/user/%d", uid), map[string]any{
		"name": "Robert", "address": "2 Side St", "phone": 79990001122, "email": "bob@example.com",
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	s.Contains(string(body), `"name":"Robert"`)

	// 3. Удаляем пользователя и заказ
	resp, _ = s.call(http.MethodDelete, fmt.Sprintf("/oms/user/%d", uid), nil, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp, _ = s.call(http.MethodGet, fmt.Sprintf("/oms/user/%d", uid), nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = s.call(http.MethodDelete, fmt.Sprintf("/oms/orders/%d", placed.OID), nil, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp, _ = s.call(http.MethodGet, "/oms/orders", nil, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *LifecycleTestSuite) TestIdempotentUserCreate() {
	first := s.createUser("carol@example.com", "key-1")

	resp, body := s.call(http.MethodPost, "/oms/user", map[string]any{
		"name": "Bob", "address": "2 Side St", "phone": 79990001122, "email": "carol@example.com",
	}, map[string]string{"Idempotency-Key": "key-1"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Equal("true", resp.Header.Get("Idempotent-Replayed"))
	s.Contains(string(body), fmt.Sprintf(`"uid":%d`, first))

	resp, _ = s.call(http.MethodPost, "/oms/user", map[string]any{"name": "Other"}, map[string]string{"Idempotency-Key": "key-1"})
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *LifecycleTestSuite) TestOutboxPublishesToKafka() {
	uid := s.createUser("dave@example.com", "")
	resp, _ := s.call(http.MethodPost, "/oms/order", map[string]any{
		"userId": uid, "productId": []int64{s.firstProductID()},
	}, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var published []*sarama.ProducerMessage
	mockProducer := mocks.NewSyncProducer(s.T(), nil)
	for i := 0; i < 2; i++ {
		mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			published = append(published, msg)
			return nil
		})
	}
	producer := kafka.NewProducerFromSync(mockProducer)
	defer producer.Close()

	worker := newOutboxWorker(s.app.cfg, s.app.deps.outboxRepo, producer, testLogger())
	s.Equal(2, worker.ProcessOnce(context.Background()))

	s.Require().Len(published, 2)
	for _, msg := range published {
		s.Equal(s.app.cfg.Kafka.Topic, msg.Topic)
	}
	key, err := published[0].Key.Encode()
	s.Require().NoError(err)
	s.Equal(fmt.Sprintf("user:%d", uid), string(key))

	repo, ok := s.app.deps.outboxRepo.(*memory.OutboxRepository)
	s.Require().True(ok)
	s.Empty(repo.Pending())
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}
