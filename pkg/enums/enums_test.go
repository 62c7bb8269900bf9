package enums

import "testing"

func TestParseNotificationType(t *testing.T) {
	for _, value := range []string{"match", "last_minute", "good_deal"} {
		parsed, err := ParseNotificationType(value)
		if err != nil {
			t.Fatalf("ParseNotificationType(%q): %v", value, err)
		}
		if !parsed.IsValid() {
			t.Fatalf("expected %q to be valid", value)
		}
		if parsed.String() != value {
			t.Fatalf("expected %q, got %q", value, parsed.String())
		}
	}

	if _, err := ParseNotificationType("price_drop"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestParseNotificationStatus(t *testing.T) {
	for _, value := range []string{"pending", "sent", "failed"} {
		parsed, err := ParseNotificationStatus(value)
		if err != nil {
			t.Fatalf("ParseNotificationStatus(%q): %v", value, err)
		}
		if !parsed.IsValid() {
			t.Fatalf("expected %q to be valid", value)
		}
	}

	if _, err := ParseNotificationStatus("queued"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if NotificationStatus("queued").IsValid() {
		t.Fatal("expected unknown status to be invalid")
	}
}
