// Package mq публикует события сборки в RabbitMQ.
//
// Топология:
//
//	buildorch.events (topic)
//	  ├── run.started
//	  ├── step.finished
//	  └── run.finished
//
// Потребители (дашборды, уведомления) привязывают свои очереди к
// exchange по нужным routing keys. buildorch сам очередей не создаёт.
package mq
