package domain

import "testing"

func TestTransferStatus_Valid(t *testing.T) {
	for _, s := range []TransferStatus{TransferStatusPending, TransferStatusCompleted, TransferStatusFailed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if TransferStatus("cancelled").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestTransferStatus_Terminal(t *testing.T) {
	if TransferStatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !TransferStatusCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
	if !TransferStatusFailed.Terminal() {
		t.Error("failed must be terminal")
	}
}
