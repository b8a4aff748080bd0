package scanner

// identityAttr is the custom DOM attribute written onto a scanned element.
// It is the only way code outside of a single scan cycle may address an
// element — never a positional selector, never an index. See spec §4.1.
const identityAttr = "data-agent-region"

// scanScript performs one full scan cycle: clears any residual identity
// attributes from a previous scan, queries the union of candidate
// interactive-element selectors, filters to genuinely visible elements,
// bubbles up from icon/text wrappers to their clickable ancestor, derives a
// label and role, deduplicates same-href links, and writes a fresh identity
// attribute on every surviving element. Returns a JSON array of regions.
const scanScript = `() => {
	const IDENTITY_ATTR = "` + identityAttr + `";

	for (const el of document.querySelectorAll("[" + IDENTITY_ATTR + "]")) {
		try { el.removeAttribute(IDENTITY_ATTR); } catch (e) {}
	}

	function isRendered(el) {
		const rect = el.getBoundingClientRect();
		if (rect.width < 5 || rect.height < 5) return false;
		const style = window.getComputedStyle(el);
		if (style.visibility === "hidden" || style.display === "none") return false;
		if (parseFloat(style.opacity) === 0) return false;
		if (el.hasAttribute("hidden")) return false;
		return true;
	}

	function bubbleUp(el) {
		const bubbleTags = new Set(["IMG", "DIV", "SPAN", "SVG"]);
		let cur = el;
		for (let i = 0; i < 3 && bubbleTags.has(cur.tagName); i++) {
			const parent = cur.parentElement;
			if (!parent) break;
			if (parent.tagName === "A" || parent.tagName === "BUTTON") {
				return parent;
			}
			cur = parent;
		}
		return el;
	}

	function collapseWhitespace(s) {
		return s.replace(/\s+/g, " ").trim();
	}

	function deriveLabel(el) {
		const ariaLabel = el.getAttribute("aria-label");
		if (ariaLabel) return collapseWhitespace(ariaLabel).slice(0, 100);

		const name = el.getAttribute("name");
		if (name) return collapseWhitespace(name).slice(0, 100);

		const placeholder = el.getAttribute("placeholder");
		if (placeholder) return collapseWhitespace(placeholder).slice(0, 100);

		const text = el.textContent;
		if (text && collapseWhitespace(text).length > 0) {
			return collapseWhitespace(text).slice(0, 100);
		}

		const img = el.querySelector("img");
		if (img) {
			const alt = img.getAttribute("alt");
			return (alt ? "Image: " + collapseWhitespace(alt) : "Unlabeled Image").slice(0, 100);
		}

		return "";
	}

	function deriveRole(el) {
		const ariaRole = el.getAttribute("role");
		if (ariaRole === "link") return "link";
		if (ariaRole === "button") return "button";
		if (ariaRole === "checkbox") return "checkbox";
		if (ariaRole === "radio") return "radio";

		switch (el.tagName) {
			case "A": return "link";
			case "BUTTON": return "button";
			case "TEXTAREA": return "textarea";
			case "SELECT": return "select";
			case "INPUT": {
				const t = (el.getAttribute("type") || "text").toLowerCase();
				if (t === "checkbox") return "checkbox";
				if (t === "radio") return "radio";
				return "input";
			}
			default: return "other";
		}
	}

	function randHex8() {
		let s = "";
		for (let i = 0; i < 8; i++) s += Math.floor(Math.random() * 16).toString(16);
		return s;
	}

	const selector = [
		"button", "[role=button]",
		"a[href]", "[role=link]",
		"input:not([type=hidden])", "textarea", "select",
		"[role=checkbox]", "[role=radio]",
	].join(",");

	const candidates = Array.from(document.querySelectorAll(selector));
	const seenHrefs = new Set();
	const regions = [];

	for (const candidate of candidates) {
		if (!isRendered(candidate)) continue;

		const target = bubbleUp(candidate);
		if (!isRendered(target)) continue;

		const label = deriveLabel(target);
		if (!label) continue;

		const href = target.tagName === "A" ? (target.getAttribute("href") || "") : "";
		if (href) {
			if (seenHrefs.has(href)) continue;
			seenHrefs.add(href);
		}

		const rect = target.getBoundingClientRect();
		const identity = "element-" + randHex8();
		target.setAttribute(IDENTITY_ATTR, identity);

		regions.push({
			identity: identity,
			label: label,
			role: deriveRole(target),
			bbox: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
			confidence: 1.0,
			href: href,
		});
	}

	return JSON.stringify(regions);
}`

// cursorPointerFallbackScript sweeps the whole document for elements whose
// computed cursor is "pointer" that were not already tagged by scanScript,
// used when a scan produces too few regions to be useful.
const cursorPointerFallbackScript = `() => {
	const IDENTITY_ATTR = "` + identityAttr + `";

	function isRendered(el) {
		const rect = el.getBoundingClientRect();
		if (rect.width < 5 || rect.height < 5) return false;
		const style = window.getComputedStyle(el);
		if (style.visibility === "hidden" || style.display === "none") return false;
		return true;
	}

	function collapseWhitespace(s) {
		return s.replace(/\s+/g, " ").trim();
	}

	function randHex8() {
		let s = "";
		for (let i = 0; i < 8; i++) s += Math.floor(Math.random() * 16).toString(16);
		return s;
	}

	const regions = [];
	const all = document.querySelectorAll("*:not([" + IDENTITY_ATTR + "])");
	for (const el of all) {
		if (window.getComputedStyle(el).cursor !== "pointer") continue;
		if (!isRendered(el)) continue;

		const label = collapseWhitespace(el.textContent || "").slice(0, 100);
		if (!label) continue;

		const rect = el.getBoundingClientRect();
		const identity = "element-" + randHex8();
		el.setAttribute(IDENTITY_ATTR, identity);

		regions.push({
			identity: identity,
			label: label,
			role: "other",
			bbox: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
			confidence: 0.7,
			href: "",
		});
	}

	return JSON.stringify(regions);
}`
