package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"coinsentry/internal/application/port"
)

// MultiNotifier fans a notification out to several transports. A failing
// transport does not stop the others; errors are joined into one.
type MultiNotifier struct {
	notifiers []port.Notifier
}

func NewMultiNotifier(notifiers ...port.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Send(ctx context.Context, userID int64, text string, emphasis port.Emphasis) error {
	var wg sync.WaitGroup
	errChan := make(chan error, len(m.notifiers))

	for _, n := range m.notifiers {
		wg.Add(1)
		go func(n port.Notifier) {
			defer wg.Done()
			if err := n.Send(ctx, userID, text, emphasis); err != nil {
				errChan <- err
			}
		}(n)
	}

	wg.Wait()
	close(errChan)

	var errs []string
	for err := range errChan {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

var _ port.Notifier = (*MultiNotifier)(nil)
