// Package webgpu implements the WebGPU pooling device and its WGSL kernels.
// The device is wired on Windows through go-webgpu (zero-CGO bindings);
// elsewhere Open reports device.ErrUnavailable.
package webgpu

// WGSL compute shaders for pooling.
// Using string constants instead of embed for simplicity.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// poolParamsDecl is the uniform block shared by every pooling shader.
// Field order matches poolParams.
const poolParamsDecl = `
struct Params {
    planes: u32,
    in_h: u32,
    in_w: u32,
    out_h: u32,
    out_w: u32,
    win_h: u32,
    win_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    reserved: u32,
}
`

// poolGeometry holds helpers shared by the forward and backward shaders.
const poolGeometry = `
fn window_start(o: i32, stride: u32, pad: u32) -> i32 {
    return o * i32(stride) - i32(pad);
}

// pool_extent is the window length clipped to the padded extent.
fn pool_extent(start: i32, win: u32, dim: u32, pad: u32) -> i32 {
    return min(start + i32(win), i32(dim + pad)) - start;
}

// first_cover is the first output position whose window contains x.
fn first_cover(x: i32, win: u32, stride: u32, pad: u32) -> i32 {
    let q = x + i32(pad);
    if (q < i32(win)) {
        return 0;
    }
    return (q - i32(win)) / i32(stride) + 1;
}

// last_cover is the last output position whose window contains x.
fn last_cover(x: i32, stride: u32, pad: u32, out: u32) -> i32 {
    return min((x + i32(pad)) / i32(stride), i32(out) - 1);
}
`

// poolMaxForwardShader computes one max output per invocation and records
// the row*W+col offset of the first maximum in row-major window order.
const poolMaxForwardShader = poolParamsDecl + poolGeometry + `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;
@group(0) @binding(2) var<storage, read_write> indices: array<u32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let plane_out = params.out_h * params.out_w;
    if (idx >= params.planes * plane_out) {
        return;
    }
    let plane = idx / plane_out;
    let i = i32((idx % plane_out) / params.out_w);
    let j = i32(idx % params.out_w);

    let hstart = window_start(i, params.stride_h, params.pad_h);
    let wstart = window_start(j, params.stride_w, params.pad_w);
    let hs = max(hstart, 0);
    let ws = max(wstart, 0);
    let he = min(hstart + i32(params.win_h), i32(params.in_h));
    let we = min(wstart + i32(params.win_w), i32(params.in_w));
    let base = plane * params.in_h * params.in_w;
    let w_in = i32(params.in_w);

    var best_off = u32(hs * w_in + ws);
    var best = input[base + best_off];
    for (var h = hs; h < he; h++) {
        for (var w = ws; w < we; w++) {
            let off = u32(h * w_in + w);
            let v = input[base + off];
            if (v > best) {
                best = v;
                best_off = off;
            }
        }
    }
    output[idx] = best;
    indices[idx] = best_off;
}
`

// poolAverageForwardShader computes one average output per invocation.
// The divisor counts padding on the near side and clips at dim+pad.
const poolAverageForwardShader = poolParamsDecl + poolGeometry + `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let plane_out = params.out_h * params.out_w;
    if (idx >= params.planes * plane_out) {
        return;
    }
    let plane = idx / plane_out;
    let i = i32((idx % plane_out) / params.out_w);
    let j = i32(idx % params.out_w);

    let hstart = window_start(i, params.stride_h, params.pad_h);
    let wstart = window_start(j, params.stride_w, params.pad_w);
    let hs = max(hstart, 0);
    let ws = max(wstart, 0);
    let he = min(hstart + i32(params.win_h), i32(params.in_h));
    let we = min(wstart + i32(params.win_w), i32(params.in_w));
    let base = plane * params.in_h * params.in_w;
    let w_in = i32(params.in_w);

    var sum = 0.0;
    for (var h = hs; h < he; h++) {
        for (var w = ws; w < we; w++) {
            sum = sum + input[base + u32(h * w_in + w)];
        }
    }
    let pool = pool_extent(hstart, params.win_h, params.in_h, params.pad_h) *
        pool_extent(wstart, params.win_w, params.in_w, params.pad_w);
    output[idx] = sum / f32(pool);
}
`

// poolMaxBackwardShader gathers, per input cell, the gradients of every
// covering output whose recorded index is that cell.
const poolMaxBackwardShader = poolParamsDecl + poolGeometry + `
@group(0) @binding(0) var<storage, read> grad_output: array<f32>;
@group(0) @binding(1) var<storage, read> indices: array<u32>;
@group(0) @binding(2) var<storage, read_write> grad_input: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let plane_in = params.in_h * params.in_w;
    if (idx >= params.planes * plane_in) {
        return;
    }
    let plane = idx / plane_in;
    let off = idx % plane_in;
    let h = i32(off / params.in_w);
    let w = i32(off % params.in_w);

    let ilo = first_cover(h, params.win_h, params.stride_h, params.pad_h);
    let ihi = last_cover(h, params.stride_h, params.pad_h, params.out_h);
    let jlo = first_cover(w, params.win_w, params.stride_w, params.pad_w);
    let jhi = last_cover(w, params.stride_w, params.pad_w, params.out_w);
    let base = plane * params.out_h * params.out_w;

    var acc = 0.0;
    for (var i = ilo; i <= ihi; i++) {
        for (var j = jlo; j <= jhi; j++) {
            let o = base + u32(i) * params.out_w + u32(j);
            if (indices[o] == off) {
                acc = acc + grad_output[o];
            }
        }
    }
    grad_input[idx] = acc;
}
`

// poolAverageBackwardShader gathers, per input cell, gradOutput / PoolSize
// from every covering output.
const poolAverageBackwardShader = poolParamsDecl + poolGeometry + `
@group(0) @binding(0) var<storage, read> grad_output: array<f32>;
@group(0) @binding(1) var<storage, read_write> grad_input: array<f32>;
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let plane_in = params.in_h * params.in_w;
    if (idx >= params.planes * plane_in) {
        return;
    }
    let plane = idx / plane_in;
    let off = idx % plane_in;
    let h = i32(off / params.in_w);
    let w = i32(off % params.in_w);

    let ilo = first_cover(h, params.win_h, params.stride_h, params.pad_h);
    let ihi = last_cover(h, params.stride_h, params.pad_h, params.out_h);
    let jlo = first_cover(w, params.win_w, params.stride_w, params.pad_w);
    let jhi = last_cover(w, params.stride_w, params.pad_w, params.out_w);
    let base = plane * params.out_h * params.out_w;

    var acc = 0.0;
    for (var i = ilo; i <= ihi; i++) {
        let hext = pool_extent(window_start(i, params.stride_h, params.pad_h), params.win_h, params.in_h, params.pad_h);
        for (var j = jlo; j <= jhi; j++) {
            let wext = pool_extent(window_start(j, params.stride_w, params.pad_w), params.win_w, params.in_w, params.pad_w);
            acc = acc + grad_output[base + u32(i) * params.out_w + u32(j)] / f32(hext * wext);
        }
    }
    grad_input[idx] = acc;
}
`
