package utils

import "sync"

// walletLocks serializes balance-changing operations per wallet so a
// balance check and the debit that follows it cannot interleave with a
// concurrent debit on the same wallet. Operations on different wallets do
// not contend. pointsLocks does the same per user for points reservations.
var (
	walletLocks sync.Map
	pointsLocks sync.Map
)

// LockWallet acquires the mutex for a wallet id. Callers must pair it with
// UnlockWallet, normally via defer.
func LockWallet(walletID uint) {
	mu, _ := walletLocks.LoadOrStore(walletID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

// UnlockWallet releases the mutex for a wallet id
func UnlockWallet(walletID uint) {
	if mu, ok := walletLocks.Load(walletID); ok {
		mu.(*sync.Mutex).Unlock()
	}
}

// LockUserPoints acquires the points mutex for a user id
func LockUserPoints(userID uint) {
	mu, _ := pointsLocks.LoadOrStore(userID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

// UnlockUserPoints releases the points mutex for a user id
func UnlockUserPoints(userID uint) {
	if mu, ok := pointsLocks.Load(userID); ok {
		mu.(*sync.Mutex).Unlock()
	}
}
