package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// describeTimeout bounds how long a second instance waits for the holder.
const describeTimeout = 500 * time.Millisecond

// Holder describes the process that owns the session lock. The tray and the
// headless runner share one lock, so Mode tells a second start which of them
// is driving the timer.
type Holder struct {
	Mode     string    `json:"mode"`
	PID      int       `json:"pid"`
	FeedAddr string    `json:"feed_addr,omitempty"`
	Since    time.Time `json:"since"`
}

func (holder Holder) String() string {
	description := fmt.Sprintf("%s (pid %d", holder.Mode, holder.PID)
	if holder.FeedAddr != "" {
		description += ", feed " + holder.FeedAddr
	}
	return description + ")"
}

// RunningError reports the instance that already holds the lock. Holder is
// nil when the lock is taken but the owner did not answer.
type RunningError struct {
	Address string
	Holder  *Holder
}

func (err *RunningError) Error() string {
	if err.Holder == nil {
		return fmt.Sprintf("acquire %s: %s", err.Address, ErrAlreadyRunning)
	}
	return fmt.Sprintf("acquire %s: %s as %s", err.Address, ErrAlreadyRunning, err.Holder)
}

func (err *RunningError) Unwrap() error {
	return ErrAlreadyRunning
}

// InstanceGuard holds the session lock and answers every connection to it
// with the holder description.
type InstanceGuard struct {
	listener net.Listener
	address  string
	holder   Holder
	done     sync.WaitGroup
}

// AcquireSingleInstance binds a localhost port derived from name. On
// conflict it asks the current holder to describe itself.
func AcquireSingleInstance(name string, holder Holder) (*InstanceGuard, error) {
	address := fmt.Sprintf("127.0.0.1:%d", portFromName(name))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, &RunningError{Address: address, Holder: describeHolder(address)}
	}
	if holder.Since.IsZero() {
		holder.Since = time.Now()
	}
	guard := &InstanceGuard{listener: listener, address: address, holder: holder}
	guard.done.Add(1)
	go guard.serve(listener)
	return guard, nil
}

func (guard *InstanceGuard) serve(listener net.Listener) {
	defer guard.done.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(describeTimeout))
		_ = json.NewEncoder(conn).Encode(guard.holder)
		_ = conn.Close()
	}
}

func describeHolder(address string) *Holder {
	conn, err := net.DialTimeout("tcp", address, describeTimeout)
	if err != nil {
		return nil
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(describeTimeout))

	var holder Holder
	if err := json.NewDecoder(conn).Decode(&holder); err != nil || holder.Mode == "" {
		return nil
	}
	return &holder
}

// Release frees the lock. It is safe on a nil guard and idempotent.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	err := guard.listener.Close()
	guard.listener = nil
	guard.done.Wait()
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

// Holder returns the description served to later instances.
func (guard *InstanceGuard) Holder() Holder {
	if guard == nil {
		return Holder{}
	}
	return guard.holder
}

func portFromName(name string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(name))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
