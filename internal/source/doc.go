// Package source feeds relay messages into a FIFO for the dispatcher.
//
// MQTT subscribes to a broker topic with paho and buffers every payload.
// Fake is an in-memory source for tests. Both assign each message a uuid
// on arrival, which stays with it across redeliveries.
package source
