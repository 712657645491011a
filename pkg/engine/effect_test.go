package engine

import (
	"fmt"
	"testing"
)

// effectConfig wires a value hook feeding an effect: the effect re-runs
// whenever hook 0's value changes.
func effectConfig(log *[]string) *Config {
	base := ValueHook("base", func(c *Component) any {
		n, _ := c.Args().(int)
		return n
	})
	base.Affects = Bits(1)
	base.RenderDep = true

	eff := EffectHook("track",
		func(c *Component) any { return c.HookValue(0) },
		func(c *Component) Cleanup {
			v := c.HookValue(0)
			*log = append(*log, fmt.Sprintf("run:%v", v))
			return func() { *log = append(*log, fmt.Sprintf("clean:%v", v)) }
		})
	eff.DependsOn = Bits(0)

	return &Config{
		Name:       "tracked",
		Slots:      []SlotDescriptor{base, eff},
		ArgsAffect: Bits(0),
		Render:     func(c *Component) any { return c.HookValue(0) },
	}
}

func TestEffectRunsAfterMountRender(t *testing.T) {
	var log []string
	rt := newTestRuntime()
	target := &RecordingTarget{}

	_, err := rt.MountComponent(effectConfig(&log), WithTarget(target), WithArgs(1))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	if len(log) != 1 || log[0] != "run:1" {
		t.Fatalf("expected effect to run once after mount, got %v", log)
	}
	if len(target.Updates()) != 1 {
		t.Errorf("mount should render before the effect runs")
	}
}

func TestEffectRerunsWithCleanup(t *testing.T) {
	var log []string
	rt := newTestRuntime()
	c, _ := rt.MountComponent(effectConfig(&log), WithArgs(1))

	c.SetArgs(2)
	rt.Scheduler().Flush()

	want := []string{"run:1", "clean:1", "run:2"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, log)
		}
	}
}

func TestEffectSkipsWhenDepsUnchanged(t *testing.T) {
	var log []string

	// Deps track only parity, so moving args 1 -> 3 changes the base
	// value but not the effect's dependency.
	base := ValueHook("base", func(c *Component) any {
		n, _ := c.Args().(int)
		return n
	})
	base.Affects = Bits(1)
	base.RenderDep = true

	eff := EffectHook("parity",
		func(c *Component) any {
			n, _ := c.HookValue(0).(int)
			return n % 2
		},
		func(c *Component) Cleanup {
			log = append(log, "run")
			return nil
		})
	eff.DependsOn = Bits(0)

	cfg := &Config{
		Name:       "parity",
		Slots:      []SlotDescriptor{base, eff},
		ArgsAffect: Bits(0),
		Render:     func(c *Component) any { return c.HookValue(0) },
	}

	rt := newTestRuntime()
	c, _ := rt.MountComponent(cfg, WithArgs(1))
	c.SetArgs(3)
	rt.Scheduler().Flush()

	if len(log) != 1 {
		t.Errorf("effect should not re-run for unchanged deps, got %v", log)
	}
}

func TestEffectCleanupOnDestroy(t *testing.T) {
	var log []string
	rt := newTestRuntime()
	c, _ := rt.MountComponent(effectConfig(&log), WithArgs(7))

	c.Destroy()

	want := []string{"run:7", "clean:7"}
	if len(log) != len(want) || log[1] != want[1] {
		t.Errorf("expected cleanup on destroy, got %v", log)
	}
}
