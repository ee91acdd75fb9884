package encoder

import (
	"testing"

	"spotengine/src/model"
)

var testConfig = SpotConfig{
	Reactor:  "0x1111111111111111111111111111111111111111",
	Executor: "0x2222222222222222222222222222222222222222",
	Adapter:  "0x3333333333333333333333333333333333333333",
	Fee:      "0x4444444444444444444444444444444444444444",
	RePermit: "0x5555555555555555555555555555555555555555",
}

func testParams() OrderParams {
	return OrderParams{
		ChainID:               137,
		SrcToken:              "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		DstToken:              "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		SrcAmount:             "1000000",
		SrcAmountPerTrade:     "250000",
		DstMinAmountPerTrade:  "120000",
		TriggerAmountPerTrade: "100000",
		DeadlineMillis:        1780000000000,
		FillDelayMillis:       60000,
		Slippage:              50,
		Account:               "0xcccccccccccccccccccccccccccccccccccccccc",
	}
}

func TestBuildOrderDataOutputBounds(t *testing.T) {
	t.Run("take profit disables the stop bound", func(t *testing.T) {
		data, err := BuildOrderData(testParams(), testConfig, model.OrderTypeTakeProfit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := data.Order.Witness.Output
		if out.Stop != model.MaxUint256 {
			t.Fatalf("expected unbounded stop, got %s", out.Stop)
		}
		if out.Limit != "100000" {
			t.Fatalf("expected trigger as limit, got %s", out.Limit)
		}
	})

	t.Run("stop loss keeps trigger as stop", func(t *testing.T) {
		data, err := BuildOrderData(testParams(), testConfig, model.OrderTypeStopLossLimit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := data.Order.Witness.Output
		if out.Stop != "100000" {
			t.Fatalf("expected trigger as stop, got %s", out.Stop)
		}
		if out.Limit != "120000" {
			t.Fatalf("expected per-trade minimum as limit, got %s", out.Limit)
		}
	})

	t.Run("empty amounts default to zero strings", func(t *testing.T) {
		params := testParams()
		params.DstMinAmountPerTrade = ""
		params.TriggerAmountPerTrade = ""
		data, err := BuildOrderData(params, testConfig, model.OrderTypeTwapMarket)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := data.Order.Witness.Output
		if out.Stop != "0" || out.Limit != "0" {
			t.Fatalf("expected zero bounds, got stop=%s limit=%s", out.Stop, out.Limit)
		}
	})
}

func TestBuildOrderDataTimeFields(t *testing.T) {
	restore := nowMillis
	nowMillis = func() int64 { return 1770000000123 }
	defer func() { nowMillis = restore }()

	data, err := BuildOrderData(testParams(), testConfig, model.OrderTypeTwapLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data.Order.Nonce != "1770000000123" {
		t.Fatalf("nonce must be the millis timestamp, got %s", data.Order.Nonce)
	}
	if data.Order.Witness.Nonce != data.Order.Nonce {
		t.Fatal("witness nonce must match the permit nonce")
	}
	if data.Order.Deadline != "1780000000" {
		t.Fatalf("deadline must be whole seconds, got %s", data.Order.Deadline)
	}
	if data.Order.Witness.Epoch != 60 {
		t.Fatalf("epoch must be the fill delay in seconds, got %d", data.Order.Witness.Epoch)
	}
	if data.Order.Witness.Freshness != 60 {
		t.Fatalf("default freshness must be 60, got %d", data.Order.Witness.Freshness)
	}
}

func TestBuildOrderDataTypedData(t *testing.T) {
	data, err := BuildOrderData(testParams(), testConfig, model.OrderTypeLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	td := data.TypedData
	if td.PrimaryType != "RePermitWitnessTransferFrom" {
		t.Fatalf("unexpected primary type %s", td.PrimaryType)
	}
	if td.Domain.Name != "RePermit" || td.Domain.Version != "1" {
		t.Fatalf("unexpected domain %+v", td.Domain)
	}
	if td.Domain.VerifyingContract != testConfig.RePermit {
		t.Fatalf("domain must verify against the repermit contract, got %s", td.Domain.VerifyingContract)
	}

	// the payload must hash cleanly with the declared types
	if _, err := td.HashStruct(td.PrimaryType, td.Message); err != nil {
		t.Fatalf("typed data does not hash: %v", err)
	}
	if _, err := td.HashStruct("EIP712Domain", td.Domain.Map()); err != nil {
		t.Fatalf("domain does not hash: %v", err)
	}
}

func TestBuildOrderDataValidation(t *testing.T) {
	params := testParams()
	params.ChainID = 0
	if _, err := BuildOrderData(params, testConfig, model.OrderTypeLimit); err == nil {
		t.Fatal("expected error without chain id")
	}

	params = testParams()
	params.SrcAmount = ""
	if _, err := BuildOrderData(params, testConfig, model.OrderTypeLimit); err == nil {
		t.Fatal("expected error without source amount")
	}
}
