package action

import "testing"

func TestClickInterceptorDisabledNeverBlocks(t *testing.T) {
	c := NewClickInterceptor()
	if c.ShouldBlock([]string{"div", "body"}) {
		t.Fatalf("disabled interceptor should never block")
	}
}

func TestClickInterceptorBlocksOffTarget(t *testing.T) {
	c := NewClickInterceptor()
	var blocked []string
	c.Enable(func(path []string) bool {
		return PathContains(path, "#target")
	}, func(path []string) { blocked = path })

	if c.ShouldBlock([]string{"#target", "body"}) {
		t.Fatalf("expected click on target to pass through")
	}
	if !c.ShouldBlock([]string{"#other", "body"}) {
		t.Fatalf("expected click off target to be blocked")
	}
	if len(blocked) == 0 {
		t.Fatalf("expected onBlocked callback to fire")
	}
}

func TestClickInterceptorAllowMarkerPasses(t *testing.T) {
	c := NewClickInterceptor()
	c.Enable(func(path []string) bool { return PathContains(path, "#target") }, nil)
	if c.ShouldBlock([]string{AllowMarker, "body"}) {
		t.Fatalf("expected allow-marked element to pass through")
	}
}

func TestClickInterceptorRetargetUpdatesPredicate(t *testing.T) {
	c := NewClickInterceptor()
	c.Enable(func(path []string) bool { return PathContains(path, "#step1") }, nil)
	if c.ShouldBlock([]string{"#step2", "body"}) == false {
		t.Fatalf("expected block before retarget")
	}
	c.Retarget(func(path []string) bool { return PathContains(path, "#step2") })
	if c.ShouldBlock([]string{"#step2", "body"}) {
		t.Fatalf("expected pass-through after retarget")
	}
}

func TestClickInterceptorDisableStopsBlocking(t *testing.T) {
	c := NewClickInterceptor()
	c.Enable(func([]string) bool { return false }, nil)
	c.Disable()
	if c.ShouldBlock([]string{"anything"}) {
		t.Fatalf("expected no blocking after Disable")
	}
}
