package debugirc_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDebugIRC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "DebugIRC Suite")
}
