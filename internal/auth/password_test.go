package auth

import "testing"

func TestPassword_HashAndCompare(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := ComparePassword(hash, "hunter2"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "hunter3"); err == nil {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashPassword_OutOfRangeCostFallsBack(t *testing.T) {
	for _, cost := range []int{-1, 0, 99} {
		hash, err := HashPassword("hunter2", cost)
		if err != nil {
			t.Fatalf("cost %d: %v", cost, err)
		}
		if err := ComparePassword(hash, "hunter2"); err != nil {
			t.Fatalf("cost %d: compare: %v", cost, err)
		}
	}
}
