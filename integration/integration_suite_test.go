// Package integration contains end-to-end tests for the telemetry
// rules service. They run the full stack in-process: the API server
// talks to a real storage adapter instance over HTTP.
package integration

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Telemetry Rules Integration Suite")
}
