package system

import (
	"strings"
	"testing"
)

func TestServeCmd_RejectsInvalidTimezone(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &ServeCmd{Addr: "127.0.0.1:0", Timezone: "Nowhere/Special"}
	err := cmd.Run(ctx)
	if err == nil {
		t.Fatal("expected invalid timezone error")
	}
	if !strings.Contains(err.Error(), "Nowhere/Special") {
		t.Errorf("error = %v, want the timezone named", err)
	}
}
